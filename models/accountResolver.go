package models

import (
	"strings"

	"github.com/KajanthanDigitWeb/summery-Dash/utils"
	"github.com/samber/lo"
)

const DefaultUnknownAccountLabel = "Unknown Account"

type ResolutionKind string

const (
	// ResolveByMapping looks the raw account code up in a fixed table; unmapped codes are unresolved.
	ResolveByMapping ResolutionKind = "mapping"
	// ResolveByPrefix infers the account from the item id prefix; misses get the unknown label.
	ResolveByPrefix ResolutionKind = "prefix"
)

func ParseResolutionKind(s string) (ResolutionKind, bool) {
	switch ResolutionKind(strings.ToLower(strings.TrimSpace(s))) {
	case ResolveByMapping:
		return ResolveByMapping, true
	case ResolveByPrefix:
		return ResolveByPrefix, true
	default:
		return "", false
	}
}

type AccountMapping struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type PrefixRule struct {
	Prefix string `json:"prefix"`
	Name   string `json:"name"`
}

// AccountResolver is the account-name strategy of one data source. Exactly one Kind is active.
type AccountResolver struct {
	Kind         ResolutionKind
	Mapping      []AccountMapping
	Prefixes     []PrefixRule
	UnknownLabel string
}

func DefaultAccountMapping() []AccountMapping {
	return []AccountMapping{
		{Code: "led_sone", Name: "LEDSone(Renuha)"},
		{Code: "electricalsone", Name: "Electricalsone(Jubista)"},
		{Code: "so_926407", Name: "Sunsone(Renuha)"},
		{Code: "vintageinterior", Name: "Vintage Interior"},
		{Code: "coventrylights", Name: "Coventry Lights"},
		{Code: "dctransformer", Name: "DC Transformer"},
		{Code: "lighting_sone", Name: "Lighting Sone"},
		{Code: "bestbringer", Name: "Best Bringer"},
		{Code: "re6865", Name: "Redro Led"},
	}
}

func NewMappingResolver(mapping []AccountMapping, unknownLabel string) AccountResolver {
	if len(mapping) == 0 {
		mapping = DefaultAccountMapping()
	}
	return AccountResolver{Kind: ResolveByMapping, Mapping: mapping, UnknownLabel: unknownLabel}
}

func NewPrefixResolver(rules []PrefixRule, unknownLabel string) AccountResolver {
	return AccountResolver{Kind: ResolveByPrefix, Prefixes: rules, UnknownLabel: unknownLabel}
}

// NewUploadResolver picks the resolver for uploaded files. Prefix resolution needs at least one
// rule; without rules the mapping is used, so unmapped rows keep their raw account id as name.
func NewUploadResolver(kind ResolutionKind, rules []PrefixRule, mapping AccountResolver) AccountResolver {
	if kind == ResolveByPrefix && len(rules) > 0 {
		return NewPrefixResolver(rules, mapping.UnknownLabel)
	}
	return mapping
}

func (r AccountResolver) unknownLabel() string {
	if strings.TrimSpace(r.UnknownLabel) == "" {
		return DefaultUnknownAccountLabel
	}
	return r.UnknownLabel
}

// Resolve returns the display name for a row. ok is false only for an unmapped code under ResolveByMapping.
func (r AccountResolver) Resolve(accountCode, itemID string) (string, bool) {
	switch r.Kind {
	case ResolveByPrefix:
		item := strings.ToUpper(strings.TrimSpace(itemID))
		for _, rule := range r.Prefixes {
			if rule.Prefix != "" && strings.HasPrefix(item, strings.ToUpper(rule.Prefix)) {
				return rule.Name, true
			}
		}
		return r.unknownLabel(), true
	default:
		code := strings.TrimSpace(accountCode)
		for _, m := range r.Mapping {
			if m.Code == code {
				return m.Name, true
			}
		}
		return "", false
	}
}

// PreferredOrder lists the known display names in declared priority order.
func (r AccountResolver) PreferredOrder() []string {
	var names []string
	switch r.Kind {
	case ResolveByPrefix:
		for _, rule := range r.Prefixes {
			names = append(names, rule.Name)
		}
	default:
		for _, m := range r.Mapping {
			names = append(names, m.Name)
		}
	}
	return lo.Uniq(names)
}

// ParseAccountMapping reads "code=Display Name,code2=Other" pairs; malformed pairs are skipped.
func ParseAccountMapping(s string) []AccountMapping {
	var out []AccountMapping
	for _, pair := range utils.SplitAndTrim(s) {
		code, name, ok := splitPair(pair)
		if !ok {
			continue
		}
		out = append(out, AccountMapping{Code: code, Name: name})
	}
	return out
}

// ParsePrefixRules reads "PFX=Display Name,..." pairs; malformed pairs are skipped.
func ParsePrefixRules(s string) []PrefixRule {
	var out []PrefixRule
	for _, pair := range utils.SplitAndTrim(s) {
		prefix, name, ok := splitPair(pair)
		if !ok {
			continue
		}
		out = append(out, PrefixRule{Prefix: prefix, Name: name})
	}
	return out
}

func splitPair(pair string) (string, string, bool) {
	key, value, found := strings.Cut(pair, "=")
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if !found || key == "" || value == "" {
		return "", "", false
	}
	return key, value, true
}
