package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/emberden/emberden/emberden/database/models"
)

type LeaderboardImageService struct {
	logger *slog.Logger
}

type BossLeaderboardRow struct {
	Rank       int
	TrainerID  string
	Damage     int64
	Percentage float64
}

type BossLeaderboardData struct {
	BossName  string
	BossID    string
	Defeated  bool
	Timestamp string
	Rows      []BossLeaderboardRow
}

func NewLeaderboardImageService() *LeaderboardImageService {
	service := &LeaderboardImageService{
		logger: slog.With(slog.String("service", "leaderboard_image")),
	}

	service.testChromedpAvailability()

	return service
}

func (s *LeaderboardImageService) testChromedpAvailability() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	chromedpCtx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	err := chromedp.Run(chromedpCtx, chromedp.Navigate("data:text/html,<html><body>test</body></html>"))
	if err != nil {
		s.logger.Error("chromedp not available - image generation will fail",
			slog.String("error", err.Error()))
	}
}

// GenerateBossLeaderboardImage renders the boss damage standings to a PNG
// for the announcement embed. The top ten contributors are shown.
func (s *LeaderboardImageService) GenerateBossLeaderboardImage(ctx context.Context, boss *models.Boss, contributions []*models.BossContribution) ([]byte, error) {
	start := time.Now()

	if len(contributions) == 0 {
		return nil, fmt.Errorf("no contributions provided")
	}
	if len(contributions) > 10 {
		contributions = contributions[:10]
	}

	rows := make([]BossLeaderboardRow, len(contributions))
	for i, c := range contributions {
		pct := float64(0)
		if boss.MaxHealth > 0 {
			pct = float64(c.DamageDealt) / float64(boss.MaxHealth) * 100
		}
		rows[i] = BossLeaderboardRow{
			Rank:       i + 1,
			TrainerID:  c.TrainerID,
			Damage:     c.DamageDealt,
			Percentage: pct,
		}
	}

	data := BossLeaderboardData{
		BossName:  boss.Name,
		BossID:    boss.BossID,
		Defeated:  boss.Status == models.BossStatusDefeated,
		Timestamp: time.Now().Format("15:04 MST"),
		Rows:      rows,
	}

	htmlContent, err := s.generateHTML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to generate HTML: %w", err)
	}

	chromedpCtx, cancel := chromedp.NewContext(ctx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancel()

	chromedpCtx, cancel = context.WithTimeout(chromedpCtx, 15*time.Second)
	defer cancel()

	var imageBytes []byte
	err = chromedp.Run(chromedpCtx,
		chromedp.Navigate("data:text/html,"+htmlContent),
		chromedp.WaitVisible("#leaderboard-container", chromedp.ByID),
		chromedp.Sleep(500*time.Millisecond),
		chromedp.Screenshot("#leaderboard-container", &imageBytes, chromedp.ByID),
	)
	if err != nil {
		s.logger.Error("Failed to generate boss leaderboard image",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)))
		return nil, fmt.Errorf("failed to generate image: %w", err)
	}

	s.logger.Info("Boss leaderboard image generated",
		slog.String("boss", boss.BossID),
		slog.Int("image_size", len(imageBytes)),
		slog.Duration("elapsed", time.Since(start)))

	return imageBytes, nil
}

func (s *LeaderboardImageService) generateHTML(data BossLeaderboardData) (string, error) {
	templatePath := filepath.Join("emberden", "templates", "boss_leaderboard.html")

	templateContent, err := os.ReadFile(templatePath)
	if err != nil {
		return "", fmt.Errorf("failed to read template file: %w", err)
	}

	tmpl, err := template.New("boss_leaderboard").Funcs(template.FuncMap{
		"printfPct": func(p float64) string { return fmt.Sprintf("%.1f%%", p) },
	}).Parse(string(templateContent))
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	htmlContent := strings.ReplaceAll(buf.String(), "#", "%23")
	htmlContent = strings.ReplaceAll(htmlContent, "\n", "")
	return htmlContent, nil
}
