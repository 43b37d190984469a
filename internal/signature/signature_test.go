package signature_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/andreasronge/ptclisp/internal/diag"
	"github.com/andreasronge/ptclisp/internal/evaluator"
	"github.com/andreasronge/ptclisp/internal/signature"
)

func TestParseSignatures(t *testing.T) {
	testCases := []struct {
		raw    string
		params int
		output string
	}{
		{"(user :map) -> {n :string}", 1, "{n :string}"},
		{"(a :int, b :string) -> :bool", 2, ":bool"},
		{"(items [{id :int}]) -> [:int]", 1, "[:int]"},
		{"{count :int}", 0, "{count :int}"},
		{"(x :any) -> {name :string, age? :int}", 1, "{name :string, age? :int}"},
		{":int", 0, ":int"},
	}

	for _, tc := range testCases {
		sig, err := signature.Parse(tc.raw)
		require.Nil(t, err, "parse %q", tc.raw)
		require.Len(t, sig.Params, tc.params, "params of %q", tc.raw)
		require.Equal(t, tc.output, sig.Output.String(), "output of %q", tc.raw)
	}
}

func TestParseErrors(t *testing.T) {
	for _, raw := range []string{
		"(a :int ->",
		"(a :unknown) -> :int",
		"(a :int) :int",
		"{x}",
		"[:int",
		"",
	} {
		_, err := signature.Parse(raw)
		require.NotNil(t, err, "expected parse failure for %q", raw)
		require.Equal(t, diag.ValidationError, err.Reason)
	}
}

func mapOf(pairs ...any) *evaluator.Map {
	m := evaluator.NewMap()
	for i := 0; i < len(pairs); i += 2 {
		m.Set(&evaluator.Keyword{Name: pairs[i].(string)}, pairs[i+1].(evaluator.Object))
	}
	return m
}

func TestValidateContext(t *testing.T) {
	sig, err := signature.Parse("(user :map, limit :int) -> :any")
	require.Nil(t, err)

	ctx := mapOf("user", mapOf(), "limit", &evaluator.Integer{Value: 3})
	require.Nil(t, sig.ValidateContext(ctx))

	missing := mapOf("user", mapOf())
	verr := sig.ValidateContext(missing)
	require.NotNil(t, verr)
	require.Equal(t, diag.ValidationError, verr.Reason)
	require.Contains(t, verr.Message, "limit")

	wrong := mapOf("user", mapOf(), "limit", &evaluator.String{Value: "3"})
	verr = sig.ValidateContext(wrong)
	require.NotNil(t, verr)
	require.Contains(t, verr.Message, ":int")
}

func TestValidateReturnPaths(t *testing.T) {
	sig, err := signature.Parse("{user {orders [{id :int}]}}")
	require.Nil(t, err)

	good := mapOf("user", mapOf("orders", &evaluator.Vector{Items: []evaluator.Object{
		mapOf("id", &evaluator.Integer{Value: 1}),
	}}))
	require.Nil(t, sig.ValidateReturn(good))

	bad := mapOf("user", mapOf("orders", &evaluator.Vector{Items: []evaluator.Object{
		mapOf("id", &evaluator.String{Value: "x"}),
	}}))
	verr := sig.ValidateReturn(bad)
	require.NotNil(t, verr)
	require.True(t, strings.Contains(verr.Message, "user.orders[0].id"),
		"expected full path in %q", verr.Message)
}

func TestOptionalFields(t *testing.T) {
	sig, err := signature.Parse("{name :string, age? :int}")
	require.Nil(t, err)

	require.Nil(t, sig.ValidateReturn(mapOf("name", &evaluator.String{Value: "a"})))
	require.Nil(t, sig.ValidateReturn(mapOf(
		"name", &evaluator.String{Value: "a"},
		"age", &evaluator.Integer{Value: 3})))
	require.Nil(t, sig.ValidateReturn(mapOf(
		"name", &evaluator.String{Value: "a"},
		"age", evaluator.NilValue)))

	verr := sig.ValidateReturn(mapOf("age", &evaluator.Integer{Value: 3}))
	require.NotNil(t, verr)
	require.Contains(t, verr.Message, "name")
}

func TestNoSilentCoercion(t *testing.T) {
	sig, err := signature.Parse(":int")
	require.Nil(t, err)
	verr := sig.ValidateReturn(&evaluator.String{Value: "42"})
	require.NotNil(t, verr)

	// :float accepts ints, the one sanctioned widening.
	sig, err = signature.Parse(":float")
	require.Nil(t, err)
	require.Nil(t, sig.ValidateReturn(&evaluator.Integer{Value: 42}))
}

func TestFlexKeyLookup(t *testing.T) {
	sig, err := signature.Parse("{name :string}")
	require.Nil(t, err)
	m := evaluator.NewMap()
	m.Set(&evaluator.String{Value: "name"}, &evaluator.String{Value: "a"})
	require.Nil(t, sig.ValidateReturn(m))
}
