package cron

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"courtly/config"
	"courtly/services/reconcile"
)

const TypeSweepExpired = "holds:sweep"

// InitSweepWorker runs the async worker and its periodic scheduler in the
// background. The sweep fires on the configured cadence; a failed run leaves
// the affected holds for the next interval.
func InitSweepWorker(sweeper *reconcile.ExpirationSweeper) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisSweepQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 1,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeSweepExpired, handleSweepTask(sweeper))

	// Start async worker with retry logic
	go func() {
		log.Println("[SweepWorker] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[SweepWorker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[SweepWorker] max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()

	// Register the periodic trigger.
	go func() {
		scheduler := asynq.NewScheduler(redisOpts, &asynq.SchedulerOpts{})

		cadence := fmt.Sprintf("@every %s", config.SweepInterval())
		if _, err := scheduler.Register(cadence, asynq.NewTask(TypeSweepExpired, nil)); err != nil {
			log.Fatalf("[SweepWorker] failed to register sweep schedule: %v", err)
		}

		log.Printf("[SweepWorker] sweep scheduled %s", cadence)
		if err := scheduler.Run(); err != nil {
			log.Fatalf("[SweepWorker] scheduler stopped: %v", err)
		}
	}()
}

func handleSweepTask(sweeper *reconcile.ExpirationSweeper) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		_, err := sweeper.Sweep(ctx)
		return err
	}
}
