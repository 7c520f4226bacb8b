package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema creates the tables the engine owns. Quiz, question and choice
// tables belong to the quiz/content services; they are created here too so
// a standalone deployment works out of the box.
const schema = `
CREATE TABLE IF NOT EXISTS quizzes (
    id BIGSERIAL PRIMARY KEY,
    title TEXT NOT NULL,
    quiz_type TEXT NOT NULL DEFAULT 'lesson',
    scheduled_for DATE,
    is_published BOOLEAN NOT NULL DEFAULT TRUE,
    CONSTRAINT valid_quiz_type CHECK (quiz_type IN ('lesson', 'daily', 'practice'))
);

CREATE TABLE IF NOT EXISTS questions (
    id BIGSERIAL PRIMARY KEY,
    quiz_id BIGINT NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
    item_id BIGINT NOT NULL,
    prompt TEXT NOT NULL,
    points INTEGER NOT NULL DEFAULT 1,
    explanation TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_questions_quiz_id ON questions(quiz_id);

CREATE TABLE IF NOT EXISTS choices (
    id BIGSERIAL PRIMARY KEY,
    question_id BIGINT NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
    choice_text TEXT NOT NULL,
    is_correct BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_choices_question_id ON choices(question_id);

CREATE TABLE IF NOT EXISTS attempts (
    id BIGSERIAL PRIMARY KEY,
    ref UUID NOT NULL UNIQUE,
    user_id BIGINT NOT NULL,
    quiz_id BIGINT NOT NULL REFERENCES quizzes(id),
    status TEXT NOT NULL DEFAULT 'active',
    score INTEGER NOT NULL DEFAULT 0,
    xp_earned INTEGER NOT NULL DEFAULT 0,
    started_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    completed_at TIMESTAMPTZ,
    CONSTRAINT valid_status CHECK (status IN ('active', 'completed'))
);

CREATE INDEX IF NOT EXISTS idx_attempts_user_quiz ON attempts(user_id, quiz_id);
CREATE INDEX IF NOT EXISTS idx_attempts_user_completed ON attempts(user_id) WHERE status = 'completed';

CREATE TABLE IF NOT EXISTS item_states (
    user_id BIGINT NOT NULL,
    item_id BIGINT NOT NULL,
    stage INTEGER NOT NULL DEFAULT 0,
    interval_days INTEGER NOT NULL DEFAULT 0,
    repetition_count INTEGER NOT NULL DEFAULT 0,
    easiness DOUBLE PRECISION NOT NULL DEFAULT 2.5,
    due_at TIMESTAMPTZ NOT NULL,
    last_reviewed_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (user_id, item_id)
);

CREATE INDEX IF NOT EXISTS idx_item_states_due ON item_states(user_id, due_at);

CREATE TABLE IF NOT EXISTS user_progression (
    user_id BIGINT PRIMARY KEY,
    streak_count INTEGER NOT NULL DEFAULT 0,
    best_streak INTEGER NOT NULL DEFAULT 0,
    last_active_day TEXT NOT NULL DEFAULT '',
    streak_freeze_count INTEGER NOT NULL DEFAULT 0,
    total_xp INTEGER NOT NULL DEFAULT 0,
    current_level TEXT NOT NULL DEFAULT 'a1',
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT valid_xp CHECK (total_xp >= 0),
    CONSTRAINT valid_freezes CHECK (streak_freeze_count >= 0)
);

CREATE TABLE IF NOT EXISTS badge_definitions (
    id BIGSERIAL PRIMARY KEY,
    code TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL,
    criteria JSONB NOT NULL,
    is_active BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS badge_awards (
    user_id BIGINT NOT NULL,
    badge_id BIGINT NOT NULL REFERENCES badge_definitions(id),
    earned_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (user_id, badge_id)
);

CREATE TABLE IF NOT EXISTS engine_settings (
    id INTEGER PRIMARY KEY DEFAULT 1,
    xp_multiplier DOUBLE PRECISION NOT NULL DEFAULT 1.0,
    streak_freeze_enabled BOOLEAN NOT NULL DEFAULT TRUE,
    badge_revocation_sweep BOOLEAN NOT NULL DEFAULT FALSE,
    CONSTRAINT single_row CHECK (id = 1)
);
`

// Migrate applies the schema. Every statement is idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
