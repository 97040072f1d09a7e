package service

import (
	"math"

	"github.com/ai-super-hub/hub-api/internal/models"
)

// computeProgress derives the integer completion percentage from completed
// and total lesson counts. A course with no lessons reads as 0%.
func computeProgress(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

// statusForProgress maps a progress percentage onto the enrollment status.
// Certificate issuance is tracked separately and never feeds back into this.
func statusForProgress(progress int) models.EnrollmentStatus {
	switch {
	case progress <= 0:
		return models.EnrollmentStatusEnrolled
	case progress < 100:
		return models.EnrollmentStatusInProgress
	default:
		return models.EnrollmentStatusCompleted
	}
}

// gradeQuiz scores submitted answers against the course's question bank.
// Answers referencing unknown question ids are skipped, and each question is
// graded at most once (first submitted answer wins); omitted questions count
// as wrong because the percentage is taken over the full bank.
func gradeQuiz(questions []models.QuizQuestion, answers []models.QuizAnswer) (score int, percentage int, reviews []models.AnswerReview) {
	byID := make(map[string]*models.QuizQuestion, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	graded := make(map[string]struct{}, len(answers))
	reviews = make([]models.AnswerReview, 0, len(answers))
	for _, answer := range answers {
		question, ok := byID[answer.QuestionID]
		if !ok {
			continue
		}
		if _, seen := graded[answer.QuestionID]; seen {
			continue
		}
		graded[answer.QuestionID] = struct{}{}
		correct := question.CorrectAnswer == answer.SelectedAnswer
		if correct {
			score++
		}
		reviews = append(reviews, models.AnswerReview{
			QuestionID:     answer.QuestionID,
			SelectedAnswer: answer.SelectedAnswer,
			IsCorrect:      correct,
		})
	}

	if len(questions) > 0 {
		percentage = int(math.Round(float64(score) / float64(len(questions)) * 100))
	}
	return score, percentage, reviews
}
