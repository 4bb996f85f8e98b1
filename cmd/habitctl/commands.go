package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/Solomon-TC/The-Habit-Hero/internal/domain/habits"
	"github.com/Solomon-TC/The-Habit-Hero/internal/domain/progression"
	"github.com/Solomon-TC/The-Habit-Hero/internal/infrastructure/persistence/postgres/connection"
	"github.com/Solomon-TC/The-Habit-Hero/internal/infrastructure/persistence/postgres/migrations"
	"github.com/Solomon-TC/The-Habit-Hero/pkg/config"
	"github.com/Solomon-TC/The-Habit-Hero/pkg/logger"
	"github.com/Solomon-TC/The-Habit-Hero/pkg/security/auth"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Context is handed to every command's Run method.
type Context struct {
	ConfigPath string
	Log        *logrus.Logger
	Out        io.Writer
}

func (c *Context) open() (*config.Config, *connection.Database, *logger.Logger, error) {
	cfg, err := config.LoadConfig(c.ConfigPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	db, err := connection.NewDatabase(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return cfg, db, logger.New(cfg.Logging), nil
}

type MigrateCmd struct{}

func (m *MigrateCmd) Run(c *Context) error {
	_, db, appLog, err := c.open()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrations.AutoMigrate(db, appLog.Named("migrations")); err != nil {
		return err
	}

	history, err := migrations.GetMigrationHistory(db)
	if err != nil {
		return fmt.Errorf("read migration history: %w", err)
	}
	c.Log.WithField("applied", len(history)).Info("Schema is up to date")
	return nil
}

type ReconcileCmd struct{}

func (r *ReconcileCmd) Run(c *Context) error {
	cfg, db, appLog, err := c.open()
	if err != nil {
		return err
	}
	defer db.Close()

	progressionService := progression.NewService(progression.NewRepository(db), nil, appLog.Named("progression"))
	habitsService := habits.NewService(habits.NewRepository(db), progressionService, nil, cfg.Gamification.Habit, appLog.Named("habits"))

	report, err := habitsService.ReconcileStreaks(context.Background())
	if err != nil {
		return err
	}
	c.Log.WithFields(logrus.Fields{
		"scanned": report.Scanned,
		"updated": report.Updated,
		"failed":  report.Failed,
	}).Info("Streak reconciliation finished")
	if report.Failed > 0 {
		return fmt.Errorf("%d habits could not be reconciled", report.Failed)
	}
	return nil
}

type LevelTableCmd struct {
	Levels int    `help:"Number of levels to print." default:"20"`
	Format string `help:"Output format." default:"table" enum:"table,yaml"`
}

func (l *LevelTableCmd) Run(c *Context) error {
	if l.Levels < 1 {
		return fmt.Errorf("--levels must be at least 1, got %d", l.Levels)
	}
	return writeLevelTable(c.Out, progression.LevelTable(l.Levels), l.Format)
}

func writeLevelTable(out io.Writer, rows []progression.LevelThreshold, format string) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(map[string]interface{}{"levels": rows}); err != nil {
			return err
		}
		return enc.Close()
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LEVEL\tXP TO NEXT\tCUMULATIVE XP")
	for _, row := range rows {
		fmt.Fprintf(tw, "%d\t%d\t%d\n", row.Level, row.XPRequired, row.CumulativeXP)
	}
	return tw.Flush()
}

type AwardCmd struct {
	User        string `help:"User ID to credit." required:""`
	Amount      int    `help:"XP to grant." required:""`
	Source      string `help:"Source kind." default:"habit" enum:"habit,goal,milestone"`
	SourceID    string `help:"ID of the habit, goal or milestone. Random when omitted."`
	Description string `help:"Ledger description." default:"Manual award"`
}

func (a *AwardCmd) input() (progression.AwardInput, error) {
	userID, err := uuid.Parse(a.User)
	if err != nil {
		return progression.AwardInput{}, fmt.Errorf("--user: %w", err)
	}
	sourceID := uuid.New()
	if a.SourceID != "" {
		if sourceID, err = uuid.Parse(a.SourceID); err != nil {
			return progression.AwardInput{}, fmt.Errorf("--source-id: %w", err)
		}
	}
	return progression.AwardInput{
		UserID:      userID,
		Amount:      a.Amount,
		SourceType:  progression.SourceKind(a.Source),
		SourceID:    sourceID,
		Description: a.Description,
	}, nil
}

func (a *AwardCmd) Run(c *Context) error {
	input, err := a.input()
	if err != nil {
		return err
	}

	_, db, appLog, err := c.open()
	if err != nil {
		return err
	}
	defer db.Close()

	service := progression.NewService(progression.NewRepository(db), nil, appLog.Named("progression"))
	result, err := service.AwardXP(context.Background(), input)
	if err != nil {
		return err
	}

	c.Log.WithFields(logrus.Fields{
		"user_id":    input.UserID,
		"amount":     result.Amount,
		"level":      result.NewLevel,
		"leveled_up": result.LeveledUp,
		"total_xp":   result.TotalXP,
	}).Info("XP awarded")
	return nil
}

type TokenCmd struct {
	User  string        `help:"User ID to put in the subject claim." required:""`
	Email string        `help:"Email claim." default:"dev@localhost"`
	TTL   time.Duration `help:"Token lifetime." default:"24h"`
}

func (t *TokenCmd) Run(c *Context) error {
	userID, err := uuid.Parse(t.User)
	if err != nil {
		return fmt.Errorf("--user: %w", err)
	}
	cfg, err := config.LoadConfig(c.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	token, err := auth.GenerateToken(userID, t.Email, cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, t.TTL)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.Out, token)
	return nil
}
