package cli

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"

	"github.com/mesh-intelligence/drills/pkg/exercise"
)

// playerFilter selects players with a boolean expr-lang expression over the
// variables id, name, number and position.
type playerFilter struct {
	program *exprvm.Program
}

func playerEnv(p *exercise.Player) map[string]any {
	return map[string]any{
		"id":       p.ID().String(),
		"name":     p.Name(),
		"number":   int(p.Number()),
		"position": p.Position(),
	}
}

// compilePlayerFilter compiles expression. An empty expression yields a
// filter that matches every player.
func compilePlayerFilter(expression string) (*playerFilter, error) {
	if expression == "" {
		return &playerFilter{}, nil
	}
	program, err := exprlang.Compile(expression,
		exprlang.Env(map[string]any{"id": "", "name": "", "number": 0, "position": ""}),
		exprlang.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("compile --where %q: %w", expression, err)
	}
	return &playerFilter{program: program}, nil
}

// Match reports whether p satisfies the filter.
func (f *playerFilter) Match(p *exercise.Player) (bool, error) {
	if f.program == nil {
		return true, nil
	}
	out, err := exprlang.Run(f.program, playerEnv(p))
	if err != nil {
		return false, fmt.Errorf("evaluate filter for player %s: %w", p.ID(), err)
	}
	ok, _ := out.(bool)
	return ok, nil
}
