package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prepstack/mockexam-backend/internal/config"
	"github.com/prepstack/mockexam-backend/internal/database"
	"github.com/prepstack/mockexam-backend/internal/logger"
	"github.com/prepstack/mockexam-backend/internal/model"
	"github.com/prepstack/mockexam-backend/internal/repository"
	"github.com/prepstack/mockexam-backend/internal/service"
	"golang.org/x/crypto/bcrypt"
)

// Seeds a demo author, a batch of candidates, and one published assessment
// so a fresh environment is immediately usable.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	authorRepo := repository.NewAuthorRepository(pool)
	candidateRepo := repository.NewCandidateRepository(pool)
	assessmentRepo := repository.NewAssessmentRepository(pool)
	contentService := service.NewContentService(assessmentRepo, rdb, log)

	// ─── Author ────────────────────────────────────────────────────────
	fmt.Println("=== Seeding demo author ===")

	hash, err := bcrypt.GenerateFromPassword([]byte("author-secret"), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	author := &model.Author{
		Email:        "author@example.com",
		Name:         "Demo Author",
		PasswordHash: string(hash),
	}
	if err := authorRepo.Create(ctx, author); err != nil {
		if !errors.Is(err, repository.ErrDuplicateEmail) {
			log.Fatal().Err(err).Msg("Failed to create author")
		}
		existing, getErr := authorRepo.GetByEmail(ctx, author.Email)
		if getErr != nil {
			log.Fatal().Err(getErr).Msg("Failed to load existing author")
		}
		author = existing
		fmt.Println("Author already exists, reusing")
	}

	// ─── Candidates ────────────────────────────────────────────────────
	fmt.Println("=== Seeding 20 candidates ===")

	candidateHash, err := bcrypt.GenerateFromPassword([]byte("candidate-secret"), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	created := 0
	for i := 1; i <= 20; i++ {
		c := &model.Candidate{
			Username:     fmt.Sprintf("candidate%02d", i),
			Name:         fmt.Sprintf("Candidate %02d", i),
			PasswordHash: string(candidateHash),
		}
		if err := candidateRepo.Create(ctx, c); err != nil {
			if errors.Is(err, repository.ErrDuplicateUsername) {
				continue
			}
			log.Fatal().Err(err).Msg("Failed to create candidate")
		}
		created++
	}
	fmt.Printf("Created %d candidates\n", created)

	// ─── Assessment ────────────────────────────────────────────────────
	fmt.Println("=== Seeding sample assessment ===")

	defJSON, err := json.Marshal(sampleDefinition())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to marshal definition")
	}

	assessment, err := contentService.Create(ctx, author.ID, &model.CreateAssessmentRequest{
		Title:      "Aptitude Mock Test 1",
		Definition: defJSON,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create assessment")
	}

	if err := contentService.Publish(ctx, assessment.ID, author.ID); err != nil {
		log.Fatal().Err(err).Msg("Failed to publish assessment")
	}

	fmt.Printf("Published assessment %s (%s)\n", assessment.Title, assessment.ID)
}

func intPtr(v int) *int          { return &v }
func floatPtr(v float64) *float64 { return &v }

func sampleDefinition() model.AssessmentDefinition {
	return model.AssessmentDefinition{
		ID:                   "aptitude-mock-1",
		Title:                "Aptitude Mock Test 1",
		TotalDurationSeconds: 2700,
		Sections: []model.Section{
			{
				ID:                    "quant",
				Category:              model.SectionCategoryQuantitative,
				Title:                 "Quantitative Aptitude",
				DurationSeconds:       1200,
				StandaloneQuestionIDs: []string{"q1", "q2"},
				QuestionGroupIDs:      []string{"g1"},
			},
			{
				ID:                    "verbal",
				Category:              model.SectionCategoryVerbal,
				Title:                 "Verbal Ability",
				DurationSeconds:       900,
				StandaloneQuestionIDs: []string{"q5", "q6"},
			},
			{
				ID:                    "reasoning",
				Category:              model.SectionCategoryReasoning,
				Title:                 "Logical Reasoning",
				DurationSeconds:       600,
				StandaloneQuestionIDs: []string{"q7"},
			},
		},
		Questions: []model.Question{
			{
				ID:                 "q1",
				Kind:               model.QuestionKindSingleChoice,
				Prompt:             "What is 15% of 240?",
				Options:            []string{"30", "36", "40", "48"},
				CorrectOptionIndex: intPtr(1),
			},
			{
				ID:           "q2",
				Kind:         model.QuestionKindNumericEntry,
				Prompt:       "A train travels 180 km in 2.5 hours. What is its average speed in km/h?",
				CorrectValue: floatPtr(72),
			},
			{
				ID:                 "q5",
				Kind:               model.QuestionKindSingleChoice,
				Prompt:             "Choose the synonym of 'ephemeral'.",
				Options:            []string{"eternal", "fleeting", "robust", "obscure"},
				CorrectOptionIndex: intPtr(1),
			},
			{
				ID:                 "q6",
				Kind:               model.QuestionKindSingleChoice,
				Prompt:             "Identify the grammatically correct sentence.",
				Options:            []string{"Each of the boys have a pen.", "Each of the boys has a pen.", "Each boys has a pen.", "Each of boys have a pen."},
				CorrectOptionIndex: intPtr(1),
			},
			{
				ID:                 "q7",
				Kind:               model.QuestionKindSingleChoice,
				Prompt:             "Which number completes the series: 2, 6, 12, 20, ?",
				Options:            []string{"28", "30", "32", "36"},
				CorrectOptionIndex: intPtr(1),
			},
		},
		Groups: []model.QuestionGroup{
			{
				ID:            "g1",
				CommonContent: "A shop sells pens at 12 each and notebooks at 45 each. A customer buys 3 pens and 2 notebooks.",
				SubQuestions: []model.Question{
					{
						ID:           "q3",
						Kind:         model.QuestionKindNumericEntry,
						Prompt:       "What is the total bill?",
						CorrectValue: floatPtr(126),
					},
					{
						ID:                 "q4",
						Kind:               model.QuestionKindSingleChoice,
						Prompt:             "If the customer pays with a 200 note, how much change is due?",
						Options:            []string{"64", "72", "74", "84"},
						CorrectOptionIndex: intPtr(2),
					},
				},
			},
		},
	}
}
