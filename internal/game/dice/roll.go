package dice

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"go.uber.org/zap"
)

// MaxDice bounds the dice count RollExpr accepts.
const MaxDice = 100

// Source produces random integers.
type Source interface {
	// Intn returns a value in [0, n).
	Intn(n int) int
}

// Result is the outcome of one roll.
type Result struct {
	Expression string
	Dice       []int
	Modifier   int
}

// Total returns the sum of the dice plus the modifier.
func (r Result) Total() int {
	total := r.Modifier
	for _, d := range r.Dice {
		total += d
	}
	return total
}

type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
func NewCryptoSource() Source {
	return cryptoSource{}
}

// Intn panics if n <= 0 or crypto/rand fails.
func (cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	return int(v.Int64())
}

// Roller rolls expressions and logs every roll at debug level.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewRoller creates a Roller drawing from src.
//
// Precondition: src and logger must be non-nil.
func NewRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Roll evaluates e.
//
// Precondition: e.Count <= MaxDice.
// Postcondition: e.Min() <= result.Total() <= e.Max().
func (r *Roller) Roll(e Expression) Result {
	dice := make([]int, e.Count)
	for i := range dice {
		dice[i] = r.src.Intn(e.Sides) + 1
	}
	res := Result{Expression: e.String(), Dice: dice, Modifier: e.Modifier}
	r.logger.Debug("dice roll",
		zap.String("expression", res.Expression),
		zap.Ints("dice", res.Dice),
		zap.Int("modifier", res.Modifier),
		zap.Int("total", res.Total()),
	)
	return res
}

// RollExpr parses expr and rolls it.
//
// Postcondition: Returns a Result, or an error if expr does not parse or
// rolls more than MaxDice dice.
func (r *Roller) RollExpr(expr string) (Result, error) {
	e, err := Parse(expr)
	if err != nil {
		return Result{}, err
	}
	if e.Count > MaxDice {
		return Result{}, fmt.Errorf("dice: %q rolls more than %d dice", expr, MaxDice)
	}
	return r.Roll(e), nil
}
