package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IgorLuiz777/onedi-02/internal/models"
)

// userColumns is the canonical column list scanned by scanUser.
const userColumns = `id, telefone, nome, genero, idioma, professor, nivel, pontuacao,
	streak_dias, aula_atual, plano_id, status_plano, data_fim_plano,
	limite_teste_minutos, tempo_teste_usado, idiomas_disponiveis, idioma_teste,
	teste_concluido, perguntas_teste, nivel_teste_final, interesses_teste,
	ultima_atividade, created_at, updated_at`

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns with COALESCE upserts.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// nilIfZero returns nil for zero ints so COALESCE keeps the stored value.
func nilIfZero(n int) interface{} {
	if n == 0 {
		return nil
	}
	return n
}

// nilIfZero64 is nilIfZero for int64 columns (plan IDs).
func nilIfZero64(n int64) interface{} {
	if n == 0 {
		return nil
	}
	return n
}

// marshalStringList encodes a string slice as a JSON column value,
// or nil when the slice is empty.
func marshalStringList(list []string) (interface{}, error) {
	if len(list) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(list)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// unmarshalStringList decodes a JSON column value into a string slice.
func unmarshalStringList(raw sql.NullString) ([]string, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal([]byte(raw.String), &list); err != nil {
		return nil, fmt.Errorf("failed to decode string list column: %w", err)
	}
	return list, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanUser.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanUser scans a full usuarios row in userColumns order.
func scanUser(row rowScanner) (*models.UserProfile, error) {
	var u models.UserProfile
	var name, gender, language, professor, level, planStatus, testLanguage, testFinalLevel sql.NullString
	var languagesJSON, interestsJSON sql.NullString
	var planID sql.NullInt64
	var planExpiry sql.NullTime
	var testCompleted bool

	err := row.Scan(
		&u.ID, &u.Phone, &name, &gender, &language, &professor, &level, &u.Score,
		&u.StreakDays, &u.CurrentLesson, &planID, &planStatus, &planExpiry,
		&u.TrialMinutesLimit, &u.TrialMinutesUsed, &languagesJSON, &testLanguage,
		&testCompleted, &u.TestQuestions, &testFinalLevel, &interestsJSON,
		&u.LastActivity, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.Name = name.String
	u.Gender = models.Gender(gender.String)
	u.Language = language.String
	u.Professor = professor.String
	u.Level = models.Level(level.String)
	u.PlanStatus = models.PlanStatus(planStatus.String)
	u.TestLanguage = testLanguage.String
	u.TestFinalLevel = models.Level(testFinalLevel.String)
	u.TestCompleted = testCompleted
	if planID.Valid {
		u.PlanID = planID.Int64
	}
	if planExpiry.Valid {
		t := planExpiry.Time
		u.PlanExpiry = &t
	}
	if u.EntitledLanguages, err = unmarshalStringList(languagesJSON); err != nil {
		return nil, err
	}
	if u.TestInterests, err = unmarshalStringList(interestsJSON); err != nil {
		return nil, err
	}
	return &u, nil
}

// planInfoFromUser derives the plan snapshot from a profile row.
// MinutesRemaining is -1 for an unexpired paid plan (unlimited).
func planInfoFromUser(u *models.UserProfile) *models.PlanInfo {
	info := &models.PlanInfo{
		Status:       u.PlanStatus,
		Expiry:       u.PlanExpiry,
		Languages:    u.EntitledLanguages,
		TestLanguage: u.TestLanguage,
	}
	switch {
	case u.PlanStatus == models.PlanTrial:
		info.MinutesRemaining = u.TrialMinutesRemaining()
	case u.PlanStatus == models.PlanActive && u.PlanExpiry != nil && u.PlanExpiry.After(time.Now()):
		info.MinutesRemaining = -1
	default:
		info.MinutesRemaining = 0
	}
	return info
}
