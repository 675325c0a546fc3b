package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/config"
	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/repository"
	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/seed"
	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var file string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机用户, 2: 插入默认问题, 3: 为所有反馈者插入随机反馈, 4: 插入示例数据, 5: 从 CSV 导入问题)")
	flag.IntVar(&n, "n", 5, "要插入的记录数量")
	flag.StringVar(&file, "file", "", "导入问题时使用的 CSV 文件路径")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	if cfg.Database.AutoMigrate {
		if _, err := repository.Migrate(ctx, dbpool); err != nil {
			logger.Error("无法执行数据库迁移", "error", err)
			return
		}
	}

	// 创建 repository
	repo := repository.NewRepository(cfg, dbpool)

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if n <= 0 {
			slog.Error("请输入合法的用户数量")
		} else {
			cnt := n
			for i := 0; i < n; i++ {
				user, profile, err := utils.GenerateRandomUser(cfg.Seed.User.Password, cfg.Email.UserDomain)
				if err != nil {
					slog.Error("无法生成随机用户", slog.String("error", err.Error()))
					continue
				}

				if err := repo.CreateUserWithProfile(user, profile); err != nil {
					slog.Error("无法插入用户", slog.String("error", err.Error()))
					continue
				}

				cnt--
			}

			slog.Info("插入用户成功", slog.Int("count", n-cnt))
		}
	case 2:
		questions, err := seed.DefaultQuestions()
		if err != nil {
			slog.Error("无法读取默认问题", slog.String("error", err.Error()))
			return
		}

		slog.Info("插入默认问题成功", slog.Int("count", seed.SeedQuestions(repo, questions)))
	case 3:
		questions, err := repo.GetAllQuestions()
		if err != nil {
			slog.Error("无法获取所有问题", slog.String("error", err.Error()))
			return
		}

		users, err := repo.GetAllUsersWithProfiles()
		if err != nil {
			slog.Error("无法获取所有用户", slog.String("error", err.Error()))
			return
		}

		// 为每一个反馈者都生成一次提交
		cnt := 0
		for _, u := range users {
			if !u.Profile.Role.IsStakeholder() {
				continue
			}

			responses := utils.GenerateRandomResponses(u.User, u.Profile, questions)
			if err := repo.CreateFeedbackResponses(responses); err != nil {
				slog.Error("无法插入反馈", slog.String("username", u.User.Username), slog.String("error", err.Error()))
				continue
			}

			cnt += len(responses)
		}

		slog.Info("插入反馈成功", slog.Int("count", cnt))
	case 4:
		if err := seed.SeedSampleData(repo, cfg.Email.UserDomain); err != nil {
			slog.Error("插入示例数据失败", slog.String("error", err.Error()))
			return
		}

		slog.Info("插入示例数据完成")
	case 5:
		if file == "" {
			slog.Error("请通过 -file 指定 CSV 文件")
			return
		}

		f, err := os.Open(file)
		if err != nil {
			slog.Error("打开文件失败", "error", err)
			return
		}
		defer f.Close()

		questions, err := seed.LoadQuestions(f)
		if err != nil {
			slog.Error("读取问题失败", "error", err)
			return
		}

		slog.Info("导入问题成功", slog.Int("count", seed.SeedQuestions(repo, questions)))
	default:
		slog.Error("指定的操作非法")
	}
}
