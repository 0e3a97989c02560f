package query

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLexerBasicTokens(t *testing.T) {
	toks, err := NewLexer(`find task where Status = Done and created > 7d`).Tokenize()
	require.NoError(t, err)

	types := make([]TokenType, len(toks))
	for i, tok := range toks {
		types[i] = tok.Type
	}
	require.Equal(t, []TokenType{
		TokenFind, TokenIdent, TokenWhere, TokenIdent, TokenEquals, TokenIdent,
		TokenAnd, TokenIdent, TokenGreater, TokenNumber, TokenEOF,
	}, types)
}

func TestLexerRejectsBareBang(t *testing.T) {
	_, err := NewLexer(`find * where a ! b`).Tokenize()
	require.Error(t, err)
}

// TestParseScenarioC matches the literal parser scenario: a parenthesized
// OR group combined with a relative-date clause, descending order, and a
// limit.
func TestParseScenarioC(t *testing.T) {
	q, err := Parse(`find task where (Status = Done or Status = Active) and created > 7d order by -created limit 20`)
	require.NoError(t, err)

	require.Equal(t, "task", q.Find)
	require.Len(t, q.Where, 2)

	group, ok := q.Where[0].(*Group)
	require.True(t, ok)
	require.Len(t, group.Clauses, 2)
	require.Equal(t, "Status", group.Clauses[0].Field)
	require.Equal(t, "Done", group.Clauses[0].Value.Str)
	require.Equal(t, "Active", group.Clauses[1].Value.Str)

	clause, ok := q.Where[1].(*Clause)
	require.True(t, ok)
	require.Equal(t, "created", clause.Field)
	require.Equal(t, OpGreater, clause.Op)
	require.Equal(t, ValueRelativeDate, clause.Value.Kind)
	require.Equal(t, "7d", clause.Value.Str)

	require.NotNil(t, q.OrderBy)
	require.Equal(t, "created", q.OrderBy.Field)
	require.True(t, q.OrderBy.Desc)
	require.Equal(t, 20, q.Limit)
}

func TestParseFindStar(t *testing.T) {
	q, err := Parse(`find *`)
	require.NoError(t, err)
	require.Equal(t, "*", q.Find)
	require.Equal(t, 100, q.Limit)
}

func TestParseExistsAndIsEmpty(t *testing.T) {
	q, err := Parse(`find task where Due exists and not Notes is empty`)
	require.NoError(t, err)
	require.Len(t, q.Where, 2)

	exists := q.Where[0].(*Clause)
	require.Equal(t, OpExists, exists.Op)
	require.False(t, exists.Negated)

	isEmpty := q.Where[1].(*Clause)
	require.Equal(t, OpIsEmpty, isEmpty.Op)
	require.True(t, isEmpty.Negated)
}

func TestParseSelectList(t *testing.T) {
	q, err := Parse(`find task select a,b,"Due Date"`)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "Due Date"}, q.Select)
}

func TestParseSelectStar(t *testing.T) {
	q, err := Parse(`find task select *`)
	require.NoError(t, err)
	require.Equal(t, []string{"*"}, q.Select)
}

func TestParseLimitClampedToHardCap(t *testing.T) {
	q, err := Parse(`find task limit 5000`)
	require.NoError(t, err)
	require.Equal(t, 1000, q.Limit)
}

func TestParseReportsPositionOnError(t *testing.T) {
	_, err := Parse(`find task where Status`)
	require.Error(t, err)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
}
