// internal/service/payment/infrastructure/rule/cel_outcome.go
package rule

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	"savor/internal/service/payment/domain"
	"savor/internal/service/payment/gateway"
)

// CELOutcomeAdapter 是 gateway.OutcomeSource 的规则引擎实现。
// 这是一个典型的适配器模式应用：把第三方表达式引擎适配到网关的结果策略接口上。
// 表达式在 amount / method / order_id 三个变量上求值，返回 true 表示放行。
// 沙箱环境常用它实现"魔法金额"：例如 `!(amount >= 1000.0)` 让大额交易必拒，
// 以便前端联调失败分支。
type CELOutcomeAdapter struct {
	prg cel.Program
	// next 是规则放行之后的下一级策略（通常是概率源）。
	// 为 nil 时规则放行即成功。
	next gateway.OutcomeSource
}

// NewCELOutcomeAdapter 编译规则表达式并创建适配器。
// 表达式必须返回布尔值；编译错误在这里而不是请求路径上暴露。
func NewCELOutcomeAdapter(expr string, next gateway.OutcomeSource) (*CELOutcomeAdapter, error) {
	env, err := cel.NewEnv(
		cel.Variable("amount", cel.DoubleType),
		cel.Variable("method", cel.StringType),
		cel.Variable("order_id", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("invalid outcome rule %q: %w", expr, issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("outcome rule %q must evaluate to bool, got %s", expr, ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to build CEL program: %w", err)
	}
	return &CELOutcomeAdapter{prg: prg, next: next}, nil
}

// Approve 实现 gateway.OutcomeSource。
func (a *CELOutcomeAdapter) Approve(ctx context.Context, tx *domain.Transaction) (bool, error) {
	out, _, err := a.prg.Eval(map[string]interface{}{
		"amount":   tx.Amount,
		"method":   string(tx.Method),
		"order_id": tx.OrderID,
	})
	if err != nil {
		return false, fmt.Errorf("outcome rule evaluation failed: %w", err)
	}

	approved, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("outcome rule returned %T, want bool", out.Value())
	}
	if !approved {
		return false, nil
	}
	if a.next != nil {
		return a.next.Approve(ctx, tx)
	}
	return true, nil
}
