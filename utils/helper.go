package utils

import (
	"context"
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/KajanthanDigitWeb/summery-Dash/config"
	"github.com/bsm/redislock"
	"github.com/shopspring/decimal"
)

var decimalCore = regexp.MustCompile(`^(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// ParseDecimal converts a user-formatted string to a decimal.Decimal value.
// Accepts values such as "1,234.50", "$ 99", "USD -20", "20 EUR" and "1.5e2".
// A currency symbol or upper-case code may only lead or trail the number.
func ParseDecimal(value string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if s == "" {
		return decimal.Zero, errors.New("empty decimal string")
	}

	neg := false
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		neg, s = true, rest
	}
	s = strings.TrimLeftFunc(s, isCurrencyRune)
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "-"); ok && !neg {
		neg, s = true, strings.TrimSpace(rest)
	}
	s = strings.TrimSpace(strings.TrimRightFunc(s, isCurrencyRune))

	if !decimalCore.MatchString(s) {
		return decimal.Zero, errors.New("invalid decimal string")
	}
	if neg {
		s = "-" + s
	}
	return decimal.NewFromString(s)
}

func isCurrencyRune(r rune) bool {
	return r == '$' || r == '£' || r == '€' || (r >= 'A' && r <= 'Z')
}

// ParseAmountOrZero never fails: anything unparsable, negative or non-finite is 0.
func ParseAmountOrZero(value string) float64 {
	d, err := ParseDecimal(value)
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

// ParseQuantityOrZero parses an integer count; decimals are truncated ("2.9" -> 2).
func ParseQuantityOrZero(value string) int {
	s := strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0
		}
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f > math.MaxInt32 {
		return 0
	}
	return int(f)
}

// StripQuotes trims spaces and removes every double quote, matching naive csv exports.
func StripQuotes(value string) string {
	return strings.TrimSpace(strings.ReplaceAll(value, `"`, ""))
}

func SplitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ObtainLock takes a best-effort redis lock. The returned release func is always safe to call.
// When redis is not connected the lock is skipped and ok is true.
func ObtainLock(ctx context.Context, key string, ttl time.Duration, moduleName string, functionName string) (release func(), ok bool) {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		return func() {}, true
	}
	lock, err := locker.Obtain(ctx, key, ttl, nil)
	if err == redislock.ErrNotObtained {
		return func() {}, false
	} else if err != nil {
		config.LogError(logger, moduleName, functionName, "Error obtaining lock", key, err)
		return func() {}, true
	}
	return func() {
		if releaseErr := lock.Release(context.Background()); releaseErr != nil && releaseErr != redislock.ErrLockNotHeld {
			config.LogError(logger, moduleName, functionName, "Error releasing lock", key, releaseErr)
		}
	}, true
}
