package catalog

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vvka-141/dwhetl/pkg/dwhetl"
)

var placeholderRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Placeholder names understood by Render.
const (
	PlaceholderLogData     = "log_data"
	PlaceholderLogJSONPath = "log_json_path"
	PlaceholderSongData    = "song_data"
	PlaceholderIAMRoleARN  = "iam_role_arn"
	PlaceholderRegion      = "region"
)

// RenderedStage is a Stage whose statements are ready to send.
type RenderedStage struct {
	Category   dwhetl.Category
	Statements []dwhetl.RenderedStatement
}

// Render substitutes every ${name} placeholder in the statement with the
// matching configuration value as a quoted SQL literal.
//
// COPY does not accept bind parameters for its source, role or region, so the
// values are inlined. QuoteLiteral escapes quotes and backslashes, so a value
// cannot end the literal early.
func Render(stmt dwhetl.Statement, cfg dwhetl.Configuration) (dwhetl.RenderedStatement, error) {
	values := map[string]string{
		PlaceholderLogData:     cfg.LogDataURI,
		PlaceholderLogJSONPath: cfg.LogJSONPath,
		PlaceholderSongData:    cfg.SongDataURI,
		PlaceholderIAMRoleARN:  cfg.IAMRoleARN,
		PlaceholderRegion:      cfg.Region,
	}

	var renderErr error
	sql := placeholderRe.ReplaceAllStringFunc(stmt.Text, func(match string) string {
		name := placeholderRe.FindStringSubmatch(match)[1]
		value, known := values[name]
		switch {
		case !known:
			if renderErr == nil {
				renderErr = fmt.Errorf("%s %s: unknown placeholder %s: %w", stmt.Category, stmt.Name, match, dwhetl.ErrConfigMalformed)
			}
			return match
		case value == "":
			if renderErr == nil {
				renderErr = fmt.Errorf("%s %s: placeholder %s has no value: %w", stmt.Category, stmt.Name, match, dwhetl.ErrConfigMalformed)
			}
			return match
		}
		return QuoteLiteral(value)
	})
	if renderErr != nil {
		return dwhetl.RenderedStatement{}, renderErr
	}

	return dwhetl.RenderedStatement{Statement: stmt, SQL: sql}, nil
}

// RenderStages renders every statement of the given stages. The first failure
// is returned and nothing is rendered partially.
func RenderStages(stages []Stage, cfg dwhetl.Configuration) ([]RenderedStage, error) {
	out := make([]RenderedStage, 0, len(stages))
	for _, stage := range stages {
		rs := RenderedStage{
			Category:   stage.Category,
			Statements: make([]dwhetl.RenderedStatement, 0, len(stage.Statements)),
		}
		for _, stmt := range stage.Statements {
			r, err := Render(stmt, cfg)
			if err != nil {
				return nil, err
			}
			rs.Statements = append(rs.Statements, r)
		}
		out = append(out, rs)
	}
	return out, nil
}

// Placeholders lists the distinct placeholder names used by a statement.
func Placeholders(stmt dwhetl.Statement) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderRe.FindAllStringSubmatch(stmt.Text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// literalEscaper doubles quotes and backslashes. Redshift treats a backslash
// in a string literal as an escape character.
var literalEscaper = strings.NewReplacer(`\`, `\\`, "'", "''")

// QuoteLiteral wraps s in single quotes, escaping embedded quotes and backslashes.
func QuoteLiteral(s string) string {
	return "'" + literalEscaper.Replace(s) + "'"
}
