package scheduler

import (
	"bookflower-loyalty/pkg/coupon"
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/gofiber/fiber/v2/log"
)

const reloadTimeout = 10 * time.Second

type Scheduler struct {
	sched gocron.Scheduler
}

// New schedules a catalog reload every interval so replicas pick up admin edits.
func New(catalogService coupon.CatalogService, interval time.Duration) (*Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
			defer cancel()

			if err := catalogService.Reload(ctx); err != nil {
				log.Errorf("[Scheduler] coupon catalog reload failed: %v", err)
			}
		}),
		gocron.WithName("coupon-catalog-reload"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}

	return &Scheduler{sched: sched}, nil
}

func (s *Scheduler) Start() {
	s.sched.Start()
}

func (s *Scheduler) Shutdown() error {
	return s.sched.Shutdown()
}
