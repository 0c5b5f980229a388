package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"editpdf/internal/config"
	"editpdf/internal/docconv"
	"editpdf/internal/drain"
	"editpdf/internal/queue"
	"editpdf/internal/submission"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// stores bundles the queue and submission stores, which share one database.
type stores struct {
	queue       *queue.Store
	submissions *submission.Store
}

func (s *stores) Close() error {
	if s == nil || s.queue == nil {
		return nil
	}
	return s.queue.Close()
}

func (c *commandContext) openStores(ctx context.Context) (*stores, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := queue.Open(cfg.QueueDBPath())
	if err != nil {
		return nil, fmt.Errorf("open queue store: %w", err)
	}
	subs, err := submission.Open(ctx, store.DB())
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("open submission store: %w", err)
	}
	return &stores{queue: store, submissions: subs}, nil
}

func (c *commandContext) withStores(ctx context.Context, fn func(*stores) error) error {
	s, err := c.openStores(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func newDrainer(cfg *config.Config, s *stores, logger *slog.Logger, observer drain.Observer) (*drain.Drainer, error) {
	converter, err := docconv.NewConfiguredClient(cfg)
	if err != nil {
		return nil, err
	}
	opts := []drain.Option{
		drain.WithAttemptLimit(cfg.Conversion.AttemptLimit),
		drain.WithBatchSize(cfg.EffectiveBatchSize()),
		drain.WithLogger(logger),
	}
	if observer != nil {
		opts = append(opts, drain.WithObserver(observer))
	}
	return drain.New(drain.Dependencies{
		Queue:       s.queue,
		Submissions: s.submissions,
		Assignments: s.submissions,
		Groups:      s.submissions,
		Converter:   converter,
	}, opts...)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
