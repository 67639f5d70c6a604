package api

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"BarSentinel/internal/model"
)

// Validator handles validation logic separate from HTTP concerns
type Validator struct {
	validate    *validator.Validate
	symbolRegex *regexp.Regexp
}

var (
	validatorInstance *Validator
	validatorOnce     sync.Once
)

// GetValidator returns the singleton validator instance
func GetValidator() *Validator {
	validatorOnce.Do(func() {
		validatorInstance = &Validator{
			validate: validator.New(),
			// exchange pairs (XBTUSD, XXBTZUSD, BTC-USD, XBT/USD) and index tickers (^GSPC)
			symbolRegex: regexp.MustCompile(`^\^?[A-Za-z0-9][A-Za-z0-9./_-]{0,19}$`),
		}
	})
	return validatorInstance
}

// BarsRequest is a validated /bars query.
type BarsRequest struct {
	Symbol      string
	Granularity model.Granularity
	Limit       int
}

// IndicatorRequest is a validated /indicators query.
type IndicatorRequest struct {
	BarsRequest
	Name    string
	Periods int
}

// ValidateBarsRequest validates and sanitizes the symbol, granularity and limit.
func (v *Validator) ValidateBarsRequest(symbol, granularity, limit string) (BarsRequest, error) {
	var req BarsRequest
	var err error
	if req.Symbol, err = v.validateSymbol(symbol); err != nil {
		return req, err
	}
	if req.Granularity, err = v.validateGranularity(granularity); err != nil {
		return req, err
	}
	if req.Limit, err = v.validateLimit(limit); err != nil {
		return req, err
	}
	return req, nil
}

// ValidateIndicatorRequest additionally validates the indicator name and periods.
func (v *Validator) ValidateIndicatorRequest(symbol, granularity, name, periods, limit string) (IndicatorRequest, error) {
	bars, err := v.ValidateBarsRequest(symbol, granularity, limit)
	if err != nil {
		return IndicatorRequest{}, err
	}
	req := IndicatorRequest{BarsRequest: bars, Name: strings.ToLower(v.sanitizeInput(name))}
	def, ok := indicators[req.Name]
	if !ok {
		return req, fmt.Errorf("unknown indicator %q. Supported values: %s", req.Name, strings.Join(indicatorNames(), ", "))
	}
	if !def.periodic {
		return req, nil
	}
	periods = v.sanitizeInput(periods)
	if periods == "" {
		req.Periods = def.defaultPeriods
		return req, nil
	}
	n, err := strconv.Atoi(periods)
	if err != nil || v.validate.Var(n, "gte=1,lte=1000") != nil {
		return req, errors.New("periods must be a number between 1 and 1000")
	}
	req.Periods = n
	return req, nil
}

// sanitizeInput removes control characters and trims whitespace
func (v *Validator) sanitizeInput(input string) string {
	input = strings.TrimSpace(input)
	input = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, input)
	if len(input) > 100 {
		input = input[:100]
	}
	return input
}

func (v *Validator) validateSymbol(symbol string) (string, error) {
	symbol = v.sanitizeInput(symbol)
	if symbol == "" {
		return "", errors.New("symbol parameter is required")
	}
	if !v.symbolRegex.MatchString(symbol) {
		return "", errors.New("symbol must be 1-20 characters of letters, digits, '.', '/', '_' or '-'")
	}
	return symbol, nil
}

// validateGranularity accepts an empty value, meaning the stored base granularity.
func (v *Validator) validateGranularity(s string) (model.Granularity, error) {
	s = v.sanitizeInput(s)
	if s == "" {
		return model.Granularity{}, nil
	}
	g, err := model.ParseGranularity(s)
	if err != nil {
		return model.Granularity{}, fmt.Errorf("invalid granularity: %w", err)
	}
	return g, nil
}

func (v *Validator) validateLimit(limitStr string) (int, error) {
	limitStr = v.sanitizeInput(limitStr)
	if limitStr == "" {
		return DefaultLimit, nil
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		return 0, errors.New("limit must be a valid number")
	}
	if err := v.validate.Var(limit, fmt.Sprintf("gte=1,lte=%d", MaxLimit)); err != nil {
		return 0, fmt.Errorf("limit must be between 1 and %d", MaxLimit)
	}
	return limit, nil
}
