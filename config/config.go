package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Политика тай-брейка при равенстве очков (см. Rules.TieBreak).
const (
	TieBreakGoalsOnly  = "goals_only"
	TieBreakHeadToHead = "head_to_head"
)

// Rules хранит настраиваемые правила соревнования.
type Rules struct {
	PointsWin  int
	PointsDraw int
	PointsLoss int

	// RosterMin/RosterMax — границы допустимого размера заявки.
	RosterMin int
	RosterMax int

	// RequireBothConfirmations требует явного подтверждения от обеих
	// сторон даже для стороны, отправившей результат. По умолчанию
	// отправитель считается подтвердившим автоматически.
	RequireBothConfirmations bool

	// RequireTieForPenalties запрещает флаг пенальти при результативной
	// разнице в основное время.
	RequireTieForPenalties bool

	TieBreak string

	// QualifiersPerGroup — сколько команд выходит из группы в плей-офф.
	QualifiersPerGroup int

	// LockTimeout ограничивает ожидание блокировки матча; по истечении
	// операция завершается ErrContention.
	LockTimeout time.Duration
}

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	ServerPort   int

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string

	Rules Rules
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	rules, err := loadRules()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURL:  dbURL,
		JWTSecretKey: jwtKey,
		ServerPort:   port,

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),

		Rules: rules,
	}

	return cfg, nil
}

func loadRules() (Rules, error) {
	rules := DefaultRules()

	var err error
	if rules.PointsWin, err = intEnv("RULES_POINTS_WIN", rules.PointsWin); err != nil {
		return rules, err
	}
	if rules.PointsDraw, err = intEnv("RULES_POINTS_DRAW", rules.PointsDraw); err != nil {
		return rules, err
	}
	if rules.QualifiersPerGroup, err = intEnv("RULES_QUALIFIERS_PER_GROUP", rules.QualifiersPerGroup); err != nil {
		return rules, err
	}

	rules.RequireBothConfirmations = boolEnv("RULES_REQUIRE_BOTH_CONFIRMATIONS", rules.RequireBothConfirmations)
	rules.RequireTieForPenalties = boolEnv("RULES_REQUIRE_TIE_FOR_PENALTIES", rules.RequireTieForPenalties)

	if tb := os.Getenv("RULES_TIE_BREAK"); tb != "" {
		if tb != TieBreakGoalsOnly && tb != TieBreakHeadToHead {
			return rules, fmt.Errorf("invalid RULES_TIE_BREAK value: %q", tb)
		}
		rules.TieBreak = tb
	}

	if lt := os.Getenv("RULES_LOCK_TIMEOUT"); lt != "" {
		d, parseErr := time.ParseDuration(lt)
		if parseErr != nil {
			return rules, fmt.Errorf("invalid RULES_LOCK_TIMEOUT value: %w", parseErr)
		}
		rules.LockTimeout = d
	}

	return rules, nil
}

// DefaultRules возвращает правила по умолчанию: футбольные очки,
// заявка 8–14 игроков, автоподтверждение отправителя.
func DefaultRules() Rules {
	return Rules{
		PointsWin:                3,
		PointsDraw:               1,
		PointsLoss:               0,
		RosterMin:                8,
		RosterMax:                14,
		RequireBothConfirmations: false,
		RequireTieForPenalties:   true,
		TieBreak:                 TieBreakGoalsOnly,
		QualifiersPerGroup:       2,
		LockTimeout:              3 * time.Second,
	}
}

func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func boolEnv(key string, def bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}
