// Package store provides storage backends for ONEDI.
//
// This file implements the PostgreSQL-backed user store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "embed"

	"github.com/IgorLuiz777/onedi-02/internal/models"
	_ "github.com/lib/pq"
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore implements Store on top of PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL store with the given DSN.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open PostgreSQL connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("PostgreSQL ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running PostgreSQL migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) GetUserByPhone(phone string) (*models.UserProfile, error) {
	row := s.db.QueryRow(`SELECT `+userColumns+` FROM usuarios WHERE telefone = $1`, phone)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore GetUserByPhone not found", "phone", phone)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetUserByPhone failed", "error", err, "phone", phone)
		return nil, fmt.Errorf("failed to query user %s: %w", phone, err)
	}
	return user, nil
}

func (s *PostgresStore) SaveUser(profile models.UserProfile) (*models.UserProfile, error) {
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
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, 'iniciante'), COALESCE($7, 0), COALESCE($8, 0), COALESCE($9, 1), $10, COALESCE($11, 'teste_gratuito'), $12, $13, CURRENT_TIMESTAMP)
		ON CONFLICT (telefone) DO UPDATE SET
			nome = COALESCE(EXCLUDED.nome, usuarios.nome),
			genero = COALESCE(EXCLUDED.genero, usuarios.genero),
			idioma = COALESCE(EXCLUDED.idioma, usuarios.idioma),
			professor = COALESCE(EXCLUDED.professor, usuarios.professor),
			nivel = COALESCE(EXCLUDED.nivel, usuarios.nivel),
			pontuacao = GREATEST(usuarios.pontuacao, EXCLUDED.pontuacao),
			streak_dias = GREATEST(usuarios.streak_dias, EXCLUDED.streak_dias),
			aula_atual = COALESCE(EXCLUDED.aula_atual, usuarios.aula_atual),
			plano_id = COALESCE(EXCLUDED.plano_id, usuarios.plano_id),
			status_plano = COALESCE(EXCLUDED.status_plano, usuarios.status_plano),
			idiomas_disponiveis = COALESCE(EXCLUDED.idiomas_disponiveis, usuarios.idiomas_disponiveis),
			idioma_teste = COALESCE(EXCLUDED.idioma_teste, usuarios.idioma_teste),
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
		slog.Error("PostgresStore SaveUser failed", "error", err, "phone", profile.Phone)
		return nil, fmt.Errorf("failed to upsert user %s: %w", profile.Phone, err)
	}
	slog.Debug("PostgresStore SaveUser succeeded", "phone", profile.Phone, "user_id", user.ID)
	return user, nil
}

func (s *PostgresStore) UpdateStreak(phone string) (int, error) {
	var streak int
	err := s.db.QueryRow(`
		UPDATE usuarios
		SET streak_dias = CASE
			WHEN DATE(ultima_atividade) = CURRENT_DATE - INTERVAL '1 day' THEN streak_dias + 1
			WHEN DATE(ultima_atividade) = CURRENT_DATE THEN streak_dias
			ELSE 1
		END,
		ultima_atividade = CURRENT_TIMESTAMP
		WHERE telefone = $1
		RETURNING streak_dias`, phone).Scan(&streak)
	if err == sql.ErrNoRows {
		return 1, nil
	}
	if err != nil {
		slog.Error("PostgresStore UpdateStreak failed", "error", err, "phone", phone)
		return 0, fmt.Errorf("failed to update streak for %s: %w", phone, err)
	}
	return streak, nil
}

func (s *PostgresStore) UpdateCurrentLesson(phone string, lessonID int) error {
	_, err := s.db.Exec(`UPDATE usuarios SET aula_atual = $2, updated_at = CURRENT_TIMESTAMP WHERE telefone = $1`, phone, lessonID)
	if err != nil {
		slog.Error("PostgresStore UpdateCurrentLesson failed", "error", err, "phone", phone, "lesson_id", lessonID)
		return fmt.Errorf("failed to update current lesson for %s: %w", phone, err)
	}
	return nil
}

func (s *PostgresStore) SaveLessonHistory(userID int64, lesson models.LessonRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO historico_aulas (usuario_id, aula_id, topico, conteudo, nivel)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (usuario_id, aula_id) DO UPDATE SET
			tempo_gasto = historico_aulas.tempo_gasto + 2`,
		userID, lesson.LessonID, lesson.Topic, lesson.Content, string(lesson.Level))
	if err != nil {
		slog.Error("PostgresStore SaveLessonHistory failed", "error", err, "user_id", userID, "lesson_id", lesson.LessonID)
		return fmt.Errorf("failed to save lesson history: %w", err)
	}
	return nil
}

func (s *PostgresStore) AddStudySession(record models.StudySessionRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO sessoes_estudo (usuario_id, modo_estudo, duracao_minutos, questoes_respondidas, questoes_corretas, pontos_ganhos)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		record.UserID, record.Mode, record.DurationMinutes, record.Questions, record.Correct, record.Points)
	if err != nil {
		slog.Error("PostgresStore AddStudySession failed", "error", err, "user_id", record.UserID)
		return fmt.Errorf("failed to insert study session: %w", err)
	}
	slog.Debug("PostgresStore AddStudySession succeeded", "user_id", record.UserID, "points", record.Points)
	return nil
}

func (s *PostgresStore) UpsertVocabulary(entry models.VocabularyEntry) error {
	_, err := s.db.Exec(`
		INSERT INTO vocabulario_usuario (usuario_id, palavra, traducao, idioma, proxima_revisao)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP + INTERVAL '1 day')
		ON CONFLICT (usuario_id, palavra, idioma) DO UPDATE SET
			vezes_vista = vocabulario_usuario.vezes_vista + 1,
			proxima_revisao = CASE
				WHEN vocabulario_usuario.nivel_conhecimento < 5
				THEN CURRENT_TIMESTAMP + INTERVAL '1 day' * vocabulario_usuario.nivel_conhecimento
				ELSE CURRENT_TIMESTAMP + INTERVAL '7 days'
			END`,
		entry.UserID, entry.Word, entry.Translation, entry.Language)
	if err != nil {
		slog.Error("PostgresStore UpsertVocabulary failed", "error", err, "user_id", entry.UserID, "word", entry.Word)
		return fmt.Errorf("failed to upsert vocabulary entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) DueVocabulary(userID int64, limit int) ([]models.VocabularyEntry, error) {
	rows, err := s.db.Query(`
		SELECT usuario_id, palavra, traducao, idioma, vezes_vista, nivel_conhecimento, proxima_revisao
		FROM vocabulario_usuario
		WHERE usuario_id = $1 AND proxima_revisao <= CURRENT_TIMESTAMP
		ORDER BY proxima_revisao ASC
		LIMIT $2`, userID, limit)
	if err != nil {
		slog.Error("PostgresStore DueVocabulary query failed", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to query due vocabulary: %w", err)
	}
	defer rows.Close()

	var entries []models.VocabularyEntry
	for rows.Next() {
		var e models.VocabularyEntry
		var translation sql.NullString
		if err := rows.Scan(&e.UserID, &e.Word, &translation, &e.Language, &e.TimesSeen, &e.Knowledge, &e.NextReview); err != nil {
			slog.Error("PostgresStore DueVocabulary scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan vocabulary row: %w", err)
		}
		e.Translation = translation.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vocabulary rows: %w", err)
	}
	slog.Debug("PostgresStore DueVocabulary succeeded", "user_id", userID, "count", len(entries))
	return entries, nil
}

func (s *PostgresStore) GetPlanStatus(phone string) (*models.PlanInfo, error) {
	user, err := s.GetUserByPhone(phone)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	return planInfoFromUser(user), nil
}

func (s *PostgresStore) ConsumeTrialMinutes(phone string, minutes int) (int, error) {
	var limit, used int
	err := s.db.QueryRow(`
		UPDATE usuarios
		SET tempo_teste_usado = tempo_teste_usado + $2,
		    ultima_atividade = CURRENT_TIMESTAMP
		WHERE telefone = $1
		RETURNING limite_teste_minutos, tempo_teste_usado`, phone, minutes).Scan(&limit, &used)
	if err != nil {
		slog.Error("PostgresStore ConsumeTrialMinutes failed", "error", err, "phone", phone)
		return 0, fmt.Errorf("failed to consume trial minutes for %s: %w", phone, err)
	}
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func (s *PostgresStore) SetTestLanguage(phone, language string) error {
	_, err := s.db.Exec(`UPDATE usuarios SET idioma_teste = $2, idioma = $2 WHERE telefone = $1`, phone, language)
	if err != nil {
		slog.Error("PostgresStore SetTestLanguage failed", "error", err, "phone", phone)
		return fmt.Errorf("failed to set test language for %s: %w", phone, err)
	}
	return nil
}

func (s *PostgresStore) ActivatePlan(phone string, planID int64, languages []string) error {
	languagesJSON, err := marshalStringList(languages)
	if err != nil {
		return fmt.Errorf("failed to encode plan languages: %w", err)
	}
	_, err = s.db.Exec(`
		UPDATE usuarios
		SET plano_id = $2,
		    status_plano = 'ativo',
		    data_inicio_plano = CURRENT_TIMESTAMP,
		    data_fim_plano = CURRENT_TIMESTAMP + INTERVAL '30 days',
		    idiomas_disponiveis = $3,
		    updated_at = CURRENT_TIMESTAMP
		WHERE telefone = $1`, phone, planID, languagesJSON)
	if err != nil {
		slog.Error("PostgresStore ActivatePlan failed", "error", err, "phone", phone, "plan_id", planID)
		return fmt.Errorf("failed to activate plan for %s: %w", phone, err)
	}
	slog.Info("PostgresStore plan activated", "phone", phone, "plan_id", planID, "languages", languages)
	return nil
}

func (s *PostgresStore) SaveTestResult(userID int64, result models.TestResult) error {
	interestsJSON, err := marshalStringList(result.Interests)
	if err != nil {
		return fmt.Errorf("failed to encode test interests: %w", err)
	}
	_, err = s.db.Exec(`
		UPDATE usuarios
		SET teste_concluido = TRUE,
		    perguntas_teste = $2,
		    nivel_teste_final = $3,
		    interesses_teste = $4,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`,
		userID, result.Questions, string(result.FinalLevel), interestsJSON)
	if err != nil {
		slog.Error("PostgresStore SaveTestResult failed", "error", err, "user_id", userID)
		return fmt.Errorf("failed to save test result: %w", err)
	}
	slog.Info("PostgresStore test result saved", "user_id", userID, "final_level", result.FinalLevel)
	return nil
}

// Close closes the underlying database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
