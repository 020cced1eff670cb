// Package store provides storage backends for ONEDI.
//
// This file implements the SQLite-backed user store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	"github.com/IgorLuiz777/onedi-02/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore implements Store on top of a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	// Ensure the directory exists
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) GetUserByPhone(phone string) (*models.UserProfile, error) {
	row := s.db.QueryRow(`SELECT `+userColumns+` FROM usuarios WHERE telefone = ?`, phone)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore GetUserByPhone not found", "phone", phone)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetUserByPhone failed", "error", err, "phone", phone)
		return nil, fmt.Errorf("failed to query user %s: %w", phone, err)
	}
	return user, nil
}

func (s *SQLiteStore) SaveUser(profile models.UserProfile) (*models.UserProfile, error) {
	languagesJSON, err := marshalStringList(profile.EntitledLanguages)
	if err != nil {
		return nil, fmt.Errorf("failed to encode entitled languages: %w", err)
	}

	row := s.db.QueryRow(`
		INSERT INTO usuarios (
			telefone, nome, genero, idioma, professor, nivel, pontuacao,
			streak_dias, aula_atual, plano_id, status_plano,
			idiomas_disponiveis, idioma_teste, updated_at
		)
		VALUES (?, ?, ?, ?, ?, COALESCE(?, 'iniciante'), COALESCE(?, 0), COALESCE(?, 0), COALESCE(?, 1), ?, COALESCE(?, 'teste_gratuito'), ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (telefone) DO UPDATE SET
			nome = COALESCE(excluded.nome, usuarios.nome),
			genero = COALESCE(excluded.genero, usuarios.genero),
			idioma = COALESCE(excluded.idioma, usuarios.idioma),
			professor = COALESCE(excluded.professor, usuarios.professor),
			nivel = COALESCE(excluded.nivel, usuarios.nivel),
			pontuacao = MAX(usuarios.pontuacao, excluded.pontuacao),
			streak_dias = MAX(usuarios.streak_dias, excluded.streak_dias),
			aula_atual = COALESCE(excluded.aula_atual, usuarios.aula_atual),
			plano_id = COALESCE(excluded.plano_id, usuarios.plano_id),
			status_plano = COALESCE(excluded.status_plano, usuarios.status_plano),
			idiomas_disponiveis = COALESCE(excluded.idiomas_disponiveis, usuarios.idiomas_disponiveis),
			idioma_teste = COALESCE(excluded.idioma_teste, usuarios.idioma_teste),
			updated_at = CURRENT_TIMESTAMP
		RETURNING `+userColumns,
		profile.Phone,
		nilIfEmpty(profile.Name),
		nilIfEmpty(string(profile.Gender)),
		nilIfEmpty(profile.Language),
		nilIfEmpty(profile.Professor),
		nilIfEmpty(string(profile.Level)),
		profile.Score,
		profile.StreakDays,
		nilIfZero(profile.CurrentLesson),
		nilIfZero64(profile.PlanID),
		nilIfEmpty(string(profile.PlanStatus)),
		languagesJSON,
		nilIfEmpty(profile.TestLanguage),
	)

	user, err := scanUser(row)
	if err != nil {
		slog.Error("SQLiteStore SaveUser failed", "error", err, "phone", profile.Phone)
		return nil, fmt.Errorf("failed to upsert user %s: %w", profile.Phone, err)
	}
	slog.Debug("SQLiteStore SaveUser succeeded", "phone", profile.Phone, "user_id", user.ID)
	return user, nil
}

func (s *SQLiteStore) UpdateStreak(phone string) (int, error) {
	var streak int
	err := s.db.QueryRow(`
		UPDATE usuarios
		SET streak_dias = CASE
			WHEN date(ultima_atividade) = date('now', '-1 day') THEN streak_dias + 1
			WHEN date(ultima_atividade) = date('now') THEN streak_dias
			ELSE 1
		END,
		ultima_atividade = CURRENT_TIMESTAMP
		WHERE telefone = ?
		RETURNING streak_dias`, phone).Scan(&streak)
	if err == sql.ErrNoRows {
		return 1, nil
	}
	if err != nil {
		slog.Error("SQLiteStore UpdateStreak failed", "error", err, "phone", phone)
		return 0, fmt.Errorf("failed to update streak for %s: %w", phone, err)
	}
	return streak, nil
}

func (s *SQLiteStore) UpdateCurrentLesson(phone string, lessonID int) error {
	_, err := s.db.Exec(`UPDATE usuarios SET aula_atual = ?, updated_at = CURRENT_TIMESTAMP WHERE telefone = ?`, lessonID, phone)
	if err != nil {
		slog.Error("SQLiteStore UpdateCurrentLesson failed", "error", err, "phone", phone, "lesson_id", lessonID)
		return fmt.Errorf("failed to update current lesson for %s: %w", phone, err)
	}
	return nil
}

func (s *SQLiteStore) SaveLessonHistory(userID int64, lesson models.LessonRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO historico_aulas (usuario_id, aula_id, topico, conteudo, nivel)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (usuario_id, aula_id) DO UPDATE SET
			tempo_gasto = historico_aulas.tempo_gasto + 2`,
		userID, lesson.LessonID, lesson.Topic, lesson.Content, string(lesson.Level))
	if err != nil {
		slog.Error("SQLiteStore SaveLessonHistory failed", "error", err, "user_id", userID, "lesson_id", lesson.LessonID)
		return fmt.Errorf("failed to save lesson history: %w", err)
	}
	return nil
}

func (s *SQLiteStore) AddStudySession(record models.StudySessionRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO sessoes_estudo (usuario_id, modo_estudo, duracao_minutos, questoes_respondidas, questoes_corretas, pontos_ganhos)
		VALUES (?, ?, ?, ?, ?, ?)`,
		record.UserID, record.Mode, record.DurationMinutes, record.Questions, record.Correct, record.Points)
	if err != nil {
		slog.Error("SQLiteStore AddStudySession failed", "error", err, "user_id", record.UserID)
		return fmt.Errorf("failed to insert study session: %w", err)
	}
	slog.Debug("SQLiteStore AddStudySession succeeded", "user_id", record.UserID, "points", record.Points)
	return nil
}

func (s *SQLiteStore) UpsertVocabulary(entry models.VocabularyEntry) error {
	_, err := s.db.Exec(`
		INSERT INTO vocabulario_usuario (usuario_id, palavra, traducao, idioma, proxima_revisao)
		VALUES (?, ?, ?, ?, datetime('now', '+1 day'))
		ON CONFLICT (usuario_id, palavra, idioma) DO UPDATE SET
			vezes_vista = vocabulario_usuario.vezes_vista + 1,
			proxima_revisao = CASE
				WHEN vocabulario_usuario.nivel_conhecimento < 5
				THEN datetime('now', '+' || vocabulario_usuario.nivel_conhecimento || ' days')
				ELSE datetime('now', '+7 days')
			END`,
		entry.UserID, entry.Word, entry.Translation, entry.Language)
	if err != nil {
		slog.Error("SQLiteStore UpsertVocabulary failed", "error", err, "user_id", entry.UserID, "word", entry.Word)
		return fmt.Errorf("failed to upsert vocabulary entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DueVocabulary(userID int64, limit int) ([]models.VocabularyEntry, error) {
	rows, err := s.db.Query(`
		SELECT usuario_id, palavra, traducao, idioma, vezes_vista, nivel_conhecimento, proxima_revisao
		FROM vocabulario_usuario
		WHERE usuario_id = ? AND proxima_revisao <= CURRENT_TIMESTAMP
		ORDER BY proxima_revisao ASC
		LIMIT ?`, userID, limit)
	if err != nil {
		slog.Error("SQLiteStore DueVocabulary query failed", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to query due vocabulary: %w", err)
	}
	defer rows.Close()

	var entries []models.VocabularyEntry
	for rows.Next() {
		var e models.VocabularyEntry
		var translation sql.NullString
		if err := rows.Scan(&e.UserID, &e.Word, &translation, &e.Language, &e.TimesSeen, &e.Knowledge, &e.NextReview); err != nil {
			slog.Error("SQLiteStore DueVocabulary scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan vocabulary row: %w", err)
		}
		e.Translation = translation.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vocabulary rows: %w", err)
	}
	slog.Debug("SQLiteStore DueVocabulary succeeded", "user_id", userID, "count", len(entries))
	return entries, nil
}

func (s *SQLiteStore) GetPlanStatus(phone string) (*models.PlanInfo, error) {
	user, err := s.GetUserByPhone(phone)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	return planInfoFromUser(user), nil
}

func (s *SQLiteStore) ConsumeTrialMinutes(phone string, minutes int) (int, error) {
	var limit, used int
	err := s.db.QueryRow(`
		UPDATE usuarios
		SET tempo_teste_usado = tempo_teste_usado + ?,
		    ultima_atividade = CURRENT_TIMESTAMP
		WHERE telefone = ?
		RETURNING limite_teste_minutos, tempo_teste_usado`, minutes, phone).Scan(&limit, &used)
	if err != nil {
		slog.Error("SQLiteStore ConsumeTrialMinutes failed", "error", err, "phone", phone)
		return 0, fmt.Errorf("failed to consume trial minutes for %s: %w", phone, err)
	}
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func (s *SQLiteStore) SetTestLanguage(phone, language string) error {
	_, err := s.db.Exec(`UPDATE usuarios SET idioma_teste = ?, idioma = ? WHERE telefone = ?`, language, language, phone)
	if err != nil {
		slog.Error("SQLiteStore SetTestLanguage failed", "error", err, "phone", phone)
		return fmt.Errorf("failed to set test language for %s: %w", phone, err)
	}
	return nil
}

func (s *SQLiteStore) ActivatePlan(phone string, planID int64, languages []string) error {
	languagesJSON, err := marshalStringList(languages)
	if err != nil {
		return fmt.Errorf("failed to encode plan languages: %w", err)
	}
	_, err = s.db.Exec(`
		UPDATE usuarios
		SET plano_id = ?,
		    status_plano = 'ativo',
		    data_inicio_plano = CURRENT_TIMESTAMP,
		    data_fim_plano = datetime('now', '+30 days'),
		    idiomas_disponiveis = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE telefone = ?`, planID, languagesJSON, phone)
	if err != nil {
		slog.Error("SQLiteStore ActivatePlan failed", "error", err, "phone", phone, "plan_id", planID)
		return fmt.Errorf("failed to activate plan for %s: %w", phone, err)
	}
	slog.Info("SQLiteStore plan activated", "phone", phone, "plan_id", planID, "languages", languages)
	return nil
}

func (s *SQLiteStore) SaveTestResult(userID int64, result models.TestResult) error {
	interestsJSON, err := marshalStringList(result.Interests)
	if err != nil {
		return fmt.Errorf("failed to encode test interests: %w", err)
	}
	_, err = s.db.Exec(`
		UPDATE usuarios
		SET teste_concluido = 1,
		    perguntas_teste = ?,
		    nivel_teste_final = ?,
		    interesses_teste = ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		result.Questions, string(result.FinalLevel), interestsJSON, userID)
	if err != nil {
		slog.Error("SQLiteStore SaveTestResult failed", "error", err, "user_id", userID)
		return fmt.Errorf("failed to save test result: %w", err)
	}
	slog.Info("SQLiteStore test result saved", "user_id", userID, "final_level", result.FinalLevel)
	return nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
