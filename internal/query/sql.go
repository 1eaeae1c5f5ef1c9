package query

import (
	"fmt"
	"sort"
	"strings"
)

// comparatorSuffix maps comparator symbols to identifier-safe fragments so
// every bind parameter is a valid name.
var comparatorSuffix = map[string]string{
	">=": "gteq",
	"<=": "lteq",
	">":  "gt",
	"<":  "lt",
	"=":  "eq",
}

// ToSQLConditions lowers the filter side of a parsed query into an
// AND-joined SQL boolean expression over the books relation, with uniquely
// named bind parameters. Values are never interpolated into the clause
// itself. An empty clause means the query carried no relational filters.
func ToSQLConditions(parsed ParsedQuery) (string, map[string]any) {
	var conds []string
	params := make(map[string]any)
	f := parsed.Filters

	for i, tf := range f.Subjects {
		name := fmt.Sprintf("subject_%d", i)
		conds = append(conds, existsClause(tf.Negated, fmt.Sprintf(
			"SELECT 1 FROM book_subjects bs JOIN subjects s ON s.id = bs.subject_id "+
				"WHERE bs.book_id = books.id AND s.name LIKE @%s", name)))
		params[name] = "%" + tf.Value + "%"
	}

	for i, tf := range f.Authors {
		name := fmt.Sprintf("author_%d", i)
		conds = append(conds, existsClause(tf.Negated, fmt.Sprintf(
			"SELECT 1 FROM book_authors ba JOIN authors a ON a.id = ba.author_id "+
				"WHERE ba.book_id = books.id AND a.name LIKE @%s", name)))
		params[name] = "%" + tf.Value + "%"
	}

	// Sort comparators so clause order is deterministic.
	comparators := make([]string, 0, len(f.Rating))
	for op := range f.Rating {
		comparators = append(comparators, op)
	}
	sort.Strings(comparators)
	for _, op := range comparators {
		suffix, ok := comparatorSuffix[op]
		if !ok {
			continue
		}
		name := "rating_" + suffix
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM personal_metadata pm WHERE pm.book_id = books.id "+
				"AND pm.rating %s @%s)", op, name))
		params[name] = f.Rating[op]
	}

	if f.Favorite != nil {
		conds = append(conds, "EXISTS (SELECT 1 FROM personal_metadata pm "+
			"WHERE pm.book_id = books.id AND pm.favorite = @favorite)")
		params["favorite"] = *f.Favorite
	}

	if f.Status != "" {
		conds = append(conds, "EXISTS (SELECT 1 FROM personal_metadata pm "+
			"WHERE pm.book_id = books.id AND pm.reading_status = @status)")
		params["status"] = f.Status
	}

	if f.Format != "" {
		conds = append(conds, "EXISTS (SELECT 1 FROM book_files bf "+
			"WHERE bf.book_id = books.id AND LOWER(bf.format) = LOWER(@format))")
		params["format"] = f.Format
	}

	if f.Language != "" {
		conds = append(conds, "books.language = @language")
		params["language"] = f.Language
	}

	if f.Series != "" {
		conds = append(conds, "books.series LIKE @series")
		params["series"] = "%" + f.Series + "%"
	}

	if f.Publisher != "" {
		conds = append(conds, "books.publisher LIKE @publisher")
		params["publisher"] = "%" + f.Publisher + "%"
	}

	// f.Extra is deliberately skipped: unknown fields never constrain the
	// query, they only survive in the token stream.

	return strings.Join(conds, " AND "), params
}

func existsClause(negated bool, subquery string) string {
	if negated {
		return "NOT EXISTS (" + subquery + ")"
	}
	return "EXISTS (" + subquery + ")"
}
