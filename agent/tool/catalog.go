package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/link-companion-assistant/agent/contract"
)

// Handler executes one approved tool. A returned error means the arguments
// were unusable; not-found is reported inside the output.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Founder is implemented by tool outputs that carry a found flag.
type Founder interface {
	IsFound() bool
}

type Dispatcher struct {
	handlers map[string]Handler
	order    []string
}

var _ contractx.ToolRunner = (*Dispatcher)(nil)

// NewDispatcher registers the approved tools backed by data.
func NewDispatcher(data *Datasets) *Dispatcher {
	d := &Dispatcher{handlers: map[string]Handler{}}
	d.Register(ToolLookupFaultCode, faultCodeHandler(data))
	d.Register(ToolLookupECUFitment, fitmentHandler(data))
	return d
}

func (d *Dispatcher) Register(name string, h Handler) {
	if _, exists := d.handlers[name]; !exists {
		d.order = append(d.order, name)
	}
	d.handlers[name] = h
}

// Names is the approved tool allow-list in registration order.
func (d *Dispatcher) Names() []string {
	return append([]string(nil), d.order...)
}

// Run executes calls in order. Unknown tools and malformed arguments are
// collected in Errors without stopping the remaining calls.
func (d *Dispatcher) Run(ctx context.Context, calls []contractx.ToolCall) contractx.ToolResults {
	results := contractx.ToolResults{
		Calls:  []contractx.ToolCallResult{},
		Errors: []string{},
	}

	for _, call := range calls {
		name := strings.TrimSpace(call.Name)
		h, ok := d.handlers[name]
		if !ok {
			results.Errors = append(results.Errors, fmt.Sprintf("Tool not allowed: %s", name))
			continue
		}
		if err := ctx.Err(); err != nil {
			results.Errors = append(results.Errors, fmt.Sprintf("tool=%s skipped: %v", name, err))
			continue
		}

		out, err := h(ctx, call.Args)
		if err != nil {
			results.Errors = append(results.Errors, fmt.Sprintf("tool=%s invalid args: %v", name, err))
			continue
		}
		results.Calls = append(results.Calls, contractx.ToolCallResult{
			Name:   name,
			Args:   call.Args,
			Output: out,
		})
	}
	return results
}

func faultCodeHandler(data *Datasets) Handler {
	return func(ctx context.Context, args map[string]any) (any, error) {
		var in FaultCodeArgs
		if err := decodeArgs(args, &in); err != nil {
			return nil, err
		}
		if strings.TrimSpace(in.Code) == "" {
			return nil, fmt.Errorf("code is required")
		}

		db, err := data.FaultCodes()
		if err != nil {
			return FaultCodeOutput{
				Found: false,
				Code:  strings.ToUpper(strings.TrimSpace(in.Code)),
				Error: err.Error(),
			}, nil
		}
		return LookupFaultCode(db, in.Code), nil
	}
}

func fitmentHandler(data *Datasets) Handler {
	return func(ctx context.Context, args map[string]any) (any, error) {
		var in FitmentArgs
		if err := decodeArgs(args, &in); err != nil {
			return nil, err
		}
		if strings.TrimSpace(in.Make) == "" {
			return nil, fmt.Errorf("make is required")
		}
		if strings.TrimSpace(in.Model) == "" {
			return nil, fmt.Errorf("model is required")
		}

		q := FitmentQuery{
			Make:         in.Make,
			Model:        in.Model,
			EngineDetail: in.EngineDetail,
		}
		if in.Year != nil {
			year := int(*in.Year)
			q.Year = &year
		}

		rows, err := data.Fitment()
		if err != nil {
			return FitmentOutput{
				Found:   false,
				Query:   q,
				Matches: []FitmentMatch{},
				Error:   err.Error(),
			}, nil
		}
		return LookupECUFitment(rows, q), nil
	}
}

func decodeArgs(args map[string]any, out any) error {
	if args == nil {
		args = map[string]any{}
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("marshal args: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode args: %w", err)
	}
	return nil
}

// Infos describes the approved tools for the plan generator prompt.
func Infos() []*schema.ToolInfo {
	return []*schema.ToolInfo{
		{
			Name: ToolLookupFaultCode,
			Desc: "Look up an OBD-II / Link fault code and return its title, summary, common causes and safe checks.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"code": {Type: schema.String, Desc: "Fault code, one letter and four digits, e.g. P0123", Required: true},
			}),
		},
		{
			Name: ToolLookupECUFitment,
			Desc: "Find Link ECU fitment records for a vehicle make and model.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"make":          {Type: schema.String, Desc: "Vehicle make, e.g. Toyota", Required: true},
				"model":         {Type: schema.String, Desc: "Vehicle model, e.g. Supra", Required: true},
				"engine_detail": {Type: schema.String, Desc: "Free text engine description, e.g. 2JZ-GTE twin turbo"},
				"year":          {Type: schema.Integer, Desc: "Model year"},
			}),
		},
	}
}
