package hierarchy

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/codetree-io/codetree/types"
)

// UnknownOrgCode is the literal fallback when no organization attribution
// can be derived for an item.
const UnknownOrgCode = "UNKN"

// orgTagPrefix marks a metadata tag that carries an explicit organization
// name or code, e.g. "ORG:Anthropic".
const orgTagPrefix = "ORG:"

// defaultOrgTable maps well-known organization names (lowercased) to their
// curated 4-character codes. Names absent here fall back to the
// normalization algorithm in FromName.
var defaultOrgTable = map[string]string{
	"google":        "GOOG",
	"alphabet":      "GOOG",
	"microsoft":     "MSFT",
	"amazon":        "AMZN",
	"apple":         "AAPL",
	"meta":          "META",
	"facebook":      "META",
	"openai":        "OPAI",
	"anthropic":     "ANTH",
	"netflix":       "NFLX",
	"nvidia":        "NVDA",
	"salesforce":    "CRMX",
	"oracle":        "ORCL",
	"hugging face":  "HUGF",
	"huggingface":   "HUGF",
	"mistral":       "MSTR",
	"mistral ai":    "MSTR",
	"deepmind":      "DPMD",
	"stability ai":  "STAB",
	"github":        "GHUB",
	"gitlab":        "GLAB",
	"atlassian":     "ATLS",
	"cloudflare":    "CLFL",
	"digitalocean":  "DGOC",
	"databricks":    "DBRX",
	"snowflake":     "SNOW",
	"elastic":       "ELST",
	"mongodb":       "MNGO",
	"red hat":       "RHAT",
	"redhat":        "RHAT",
	"hashicorp":     "HASH",
	"jetbrains":     "JETB",
	"x":             "XCRP",
	"twitter":       "XCRP",
	"linkedin":      "LNKD",
	"stackoverflow": "STOV",
}

// knownTLDs are stripped from the tail of a domain before deriving a code
// from the remaining label.
var knownTLDs = []string{
	".com", ".org", ".net", ".io", ".ai", ".dev", ".co", ".app",
	".edu", ".gov", ".info", ".tech", ".cloud",
}

// domainPrefixes are service subdomains that never carry organization
// identity and are stripped before resolution.
var domainPrefixes = []string{"www.", "api.", "docs.", "blog."}

// OrgCodeResolver derives 4-character organization codes from free-text
// company names or domains, preferring a curated lookup table over the
// algorithmic fallback.
type OrgCodeResolver struct {
	table map[string]string
}

// NewOrgCodeResolver returns a resolver seeded with the built-in curated
// table.
func NewOrgCodeResolver() *OrgCodeResolver {
	table := make(map[string]string, len(defaultOrgTable))
	for name, code := range defaultOrgTable {
		table[name] = code
	}
	return &OrgCodeResolver{table: table}
}

// orgTableFile is the YAML shape of a curated-table overlay.
type orgTableFile struct {
	Organizations map[string]string `yaml:"organizations"`
}

// LoadTable merges curated entries from a YAML file over the built-in
// table. Keys are matched case-insensitively; codes are uppercased.
func (r *OrgCodeResolver) LoadTable(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read org table: %w", err)
	}
	var file orgTableFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("failed to parse org table: %w", err)
	}
	for name, code := range file.Organizations {
		r.table[strings.ToLower(strings.TrimSpace(name))] = strings.ToUpper(strings.TrimSpace(code))
	}
	return nil
}

// FromName derives a code from a company name: curated table first, then
// normalization (lowercase, alphanumerics only, first four characters
// uppercased, right-padded with X when shorter).
func (r *OrgCodeResolver) FromName(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return UnknownOrgCode
	}
	if code, ok := r.table[strings.ToLower(trimmed)]; ok {
		return code
	}

	var normalized []byte
	for _, c := range strings.ToLower(trimmed) {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			normalized = append(normalized, byte(c))
		}
	}
	if len(normalized) == 0 {
		return UnknownOrgCode
	}
	if len(normalized) >= 4 {
		return strings.ToUpper(string(normalized[:4]))
	}
	padded := string(normalized)
	for len(padded) < 4 {
		padded += "x"
	}
	return strings.ToUpper(padded)
}

// FromDomain derives a code from a domain by stripping service prefixes and
// known TLD suffixes, then applying the company-name algorithm to what is
// left. "www.google.com" resolves through the curated table to "GOOG".
func (r *OrgCodeResolver) FromDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	if d == "" {
		return UnknownOrgCode
	}
	for _, prefix := range domainPrefixes {
		if strings.HasPrefix(d, prefix) {
			d = strings.TrimPrefix(d, prefix)
			break
		}
	}
	for {
		stripped := false
		for _, tld := range knownTLDs {
			if strings.HasSuffix(d, tld) {
				d = strings.TrimSuffix(d, tld)
				stripped = true
				break
			}
		}
		if !stripped {
			break
		}
	}
	return r.FromName(d)
}

// Resolve derives the organization code for an item using the precedence
// company field, "ORG:" tag, source domain, then the UNKN fallback.
func (r *OrgCodeResolver) Resolve(item types.Item) string {
	if strings.TrimSpace(item.Company) != "" {
		return r.FromName(item.Company)
	}
	for _, tag := range item.Tags {
		if strings.HasPrefix(strings.ToUpper(tag), orgTagPrefix) {
			value := strings.TrimSpace(tag[len(orgTagPrefix):])
			if value != "" {
				return r.FromName(value)
			}
		}
	}
	if strings.TrimSpace(item.SourceDomain) != "" {
		return r.FromDomain(item.SourceDomain)
	}
	return UnknownOrgCode
}
