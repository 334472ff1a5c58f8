package llmagent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fluxdns/fluxdns/internal/dnswire"
	"github.com/fluxdns/fluxdns/internal/store"
)

// Function is one model-callable operation.
type Function interface {
	Definition() FunctionDefinition
	Execute(ctx context.Context, args json.RawMessage) FunctionResult
}

// Registry holds every function the agent exposes to the model, backed
// by the same repository facade the REST handlers use.
type Registry struct {
	functions map[string]Function
}

// NewRegistry wires up the standard set of admin functions against store
// and, when non-nil, cache.
func NewRegistry(st Store, c Cache) *Registry {
	r := &Registry{functions: make(map[string]Function)}
	r.register(&listRecordsFunc{store: st})
	r.register(&addRecordFunc{store: st})
	r.register(&deleteRecordFunc{store: st})
	r.register(&listRulesFunc{store: st})
	r.register(&addRuleFunc{store: st})
	r.register(&deleteRuleFunc{store: st})
	r.register(&listUpstreamsFunc{store: st})
	r.register(&getSystemStatusFunc{store: st})
	if c != nil {
		r.register(&clearCacheFunc{cache: c})
	}
	return r
}

func (r *Registry) register(f Function) {
	r.functions[f.Definition().Name] = f
}

// ToolDefinitions returns every registered function's definition, in
// the "tools" shape the chat completion API expects.
func (r *Registry) ToolDefinitions() []ToolDefinition {
	out := make([]ToolDefinition, 0, len(r.functions))
	for _, f := range r.functions {
		out = append(out, ToolDefinition{Type: "function", Function: f.Definition()})
	}
	return out
}

// Execute runs the named function, parsing argsJSON as its arguments.
func (r *Registry) Execute(ctx context.Context, name, argsJSON string) FunctionResult {
	f, ok := r.functions[name]
	if !ok {
		return ResultErr(fmt.Sprintf("unknown function: %s", name))
	}
	return f.Execute(ctx, json.RawMessage(argsJSON))
}

func schema(properties, required string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"type":"object","properties":%s,"required":%s}`, properties, required))
}

// --- DNS records ---

type listRecordsFunc struct{ store Store }

func (f *listRecordsFunc) Definition() FunctionDefinition {
	return FunctionDefinition{
		Name:        "list_dns_records",
		Description: "List every local DNS record.",
		Parameters:  schema(`{}`, `[]`),
	}
}

func (f *listRecordsFunc) Execute(ctx context.Context, _ json.RawMessage) FunctionResult {
	records, err := f.store.ListRecords(ctx)
	if err != nil {
		return ResultErr(err.Error())
	}
	return ResultOK(records)
}

type addRecordArgs struct {
	Name     string `json:"name"`
	Type     string `json:"record_type"`
	Value    string `json:"value"`
	TTL      uint32 `json:"ttl"`
	Priority uint16 `json:"priority"`
}

type addRecordFunc struct{ store Store }

func (f *addRecordFunc) Definition() FunctionDefinition {
	return FunctionDefinition{
		Name:        "add_dns_record",
		Description: "Add one local DNS record (A/AAAA/CNAME/MX/TXT/PTR/NS/SRV).",
		Parameters: schema(
			`{"name":{"type":"string"},"record_type":{"type":"string"},"value":{"type":"string"},"ttl":{"type":"integer"},"priority":{"type":"integer"}}`,
			`["name","record_type","value"]`,
		),
	}
}

func (f *addRecordFunc) Execute(ctx context.Context, raw json.RawMessage) FunctionResult {
	var args addRecordArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return ResultErr("invalid arguments: " + err.Error())
	}
	recordType, ok := dnswire.RecordTypeFromString(args.Type)
	if !ok {
		return ResultErr("unknown record_type: " + args.Type)
	}
	ttl := args.TTL
	if ttl == 0 {
		ttl = 300
	}
	id, err := f.store.CreateRecord(ctx, store.Record{
		Name:     args.Name,
		Type:     recordType,
		Value:    args.Value,
		TTL:      ttl,
		Priority: args.Priority,
		Enabled:  true,
	})
	if err != nil {
		return ResultErr(err.Error())
	}
	return ResultOK(map[string]any{"id": id})
}

type deleteRecordFunc struct{ store Store }

func (f *deleteRecordFunc) Definition() FunctionDefinition {
	return FunctionDefinition{
		Name:        "delete_dns_record",
		Description: "Delete a local DNS record by id.",
		Parameters:  schema(`{"id":{"type":"integer"}}`, `["id"]`),
	}
}

func (f *deleteRecordFunc) Execute(ctx context.Context, raw json.RawMessage) FunctionResult {
	var args struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return ResultErr("invalid arguments: " + err.Error())
	}
	if err := f.store.DeleteRecord(ctx, args.ID); err != nil {
		return ResultErr(err.Error())
	}
	return ResultOK(map[string]any{"deleted": args.ID})
}

// --- Rewrite rules ---

type listRulesFunc struct{ store Store }

func (f *listRulesFunc) Definition() FunctionDefinition {
	return FunctionDefinition{
		Name:        "list_rewrite_rules",
		Description: "List every rewrite/block rule.",
		Parameters:  schema(`{}`, `[]`),
	}
}

func (f *listRulesFunc) Execute(ctx context.Context, _ json.RawMessage) FunctionResult {
	rules, err := f.store.ListRules(ctx)
	if err != nil {
		return ResultErr(err.Error())
	}
	return ResultOK(rules)
}

type addRuleArgs struct {
	Pattern     string `json:"pattern"`
	MatchType   string `json:"match_type"`
	ActionType  string `json:"action_type"`
	ActionValue string `json:"action_value"`
	Description string `json:"description"`
}

type addRuleFunc struct{ store Store }

func (f *addRuleFunc) Definition() FunctionDefinition {
	return FunctionDefinition{
		Name:        "add_rewrite_rule",
		Description: "Add a rewrite/block rule (match_type: exact|wildcard|regex; action_type: block|map_ip|map_domain).",
		Parameters: schema(
			`{"pattern":{"type":"string"},"match_type":{"type":"string"},"action_type":{"type":"string"},"action_value":{"type":"string"},"description":{"type":"string"}}`,
			`["pattern","match_type","action_type"]`,
		),
	}
}

func (f *addRuleFunc) Execute(ctx context.Context, raw json.RawMessage) FunctionResult {
	var args addRuleArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return ResultErr("invalid arguments: " + err.Error())
	}
	id, err := f.store.CreateRule(ctx, store.Rule{
		Pattern:     args.Pattern,
		MatchType:   args.MatchType,
		ActionType:  args.ActionType,
		ActionValue: args.ActionValue,
		Enabled:     true,
		Description: args.Description,
	})
	if err != nil {
		return ResultErr(err.Error())
	}
	return ResultOK(map[string]any{"id": id})
}

type deleteRuleFunc struct{ store Store }

func (f *deleteRuleFunc) Definition() FunctionDefinition {
	return FunctionDefinition{
		Name:        "delete_rewrite_rule",
		Description: "Delete a rewrite/block rule by id.",
		Parameters:  schema(`{"id":{"type":"integer"}}`, `["id"]`),
	}
}

func (f *deleteRuleFunc) Execute(ctx context.Context, raw json.RawMessage) FunctionResult {
	var args struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return ResultErr("invalid arguments: " + err.Error())
	}
	if err := f.store.DeleteRule(ctx, args.ID); err != nil {
		return ResultErr(err.Error())
	}
	return ResultOK(map[string]any{"deleted": args.ID})
}

// --- Upstreams / settings / cache ---

type listUpstreamsFunc struct{ store Store }

func (f *listUpstreamsFunc) Definition() FunctionDefinition {
	return FunctionDefinition{
		Name:        "list_upstreams",
		Description: "List configured upstream resolvers.",
		Parameters:  schema(`{}`, `[]`),
	}
}

func (f *listUpstreamsFunc) Execute(ctx context.Context, _ json.RawMessage) FunctionResult {
	rows, err := f.store.ListUpstreams(ctx)
	if err != nil {
		return ResultErr(err.Error())
	}
	return ResultOK(rows)
}

type getSystemStatusFunc struct{ store Store }

func (f *getSystemStatusFunc) Definition() FunctionDefinition {
	return FunctionDefinition{
		Name:        "get_system_status",
		Description: "Get the current runtime settings (query strategy, cache sizing, log retention, disabled record types).",
		Parameters:  schema(`{}`, `[]`),
	}
}

func (f *getSystemStatusFunc) Execute(ctx context.Context, _ json.RawMessage) FunctionResult {
	all, err := f.store.GetAllConfig(ctx)
	if err != nil {
		return ResultErr(err.Error())
	}
	return ResultOK(all)
}

type clearCacheFunc struct{ cache Cache }

func (f *clearCacheFunc) Definition() FunctionDefinition {
	return FunctionDefinition{
		Name:        "clear_cache",
		Description: "Clear every cached DNS answer.",
		Parameters:  schema(`{}`, `[]`),
	}
}

func (f *clearCacheFunc) Execute(ctx context.Context, _ json.RawMessage) FunctionResult {
	f.cache.Clear()
	return ResultOK(map[string]any{"cleared": true})
}
