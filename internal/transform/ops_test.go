package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/refinery/internal/dataset"
)

func strRows(header string, vals ...string) dataset.Dataset {
	rows := make([]dataset.Row, len(vals))
	for i, v := range vals {
		rows[i] = dataset.Row{header: dataset.Str(v)}
	}
	return dataset.New([]string{header}, rows)
}

func column(ds dataset.Dataset, h string) []string {
	out := make([]string, ds.Len())
	for i := range ds.Rows {
		out[i] = ds.Cell(i, h).String()
	}
	return out
}

func TestDeduplicate(t *testing.T) {
	ds := dataset.New([]string{"Name", "Age"}, []dataset.Row{
		{"Name": dataset.Str("Ann"), "Age": dataset.Num(30)},
		{"Name": dataset.Str("Bob"), "Age": dataset.Num(25)},
		{"Name": dataset.Str("Ann"), "Age": dataset.Num(30)},
		{"Name": dataset.Str("Ann"), "Age": dataset.Str("30")},
	})

	out := Deduplicate(ds)

	assert.Equal(t, 2, out.Dataset.Len())
	assert.Equal(t, []string{"Ann", "Bob"}, column(out.Dataset, "Name"))
	assert.Equal(t, 2, out.Affected)
	assert.Equal(t, "Removed 2 duplicate rows.", out.Message)
	assert.False(t, out.Noop)
	assert.Equal(t, 4, ds.Len(), "input must not be mutated")
}

func TestDeduplicate_SignatureIsInjective(t *testing.T) {
	ds := dataset.New([]string{"A", "B"}, []dataset.Row{
		{"A": dataset.Str("ab"), "B": dataset.Str("c")},
		{"A": dataset.Str("a"), "B": dataset.Str("bc")},
	})

	out := Deduplicate(ds)

	assert.Equal(t, 2, out.Dataset.Len())
	assert.True(t, out.Noop)
	assert.Equal(t, "No duplicates found.", out.Message)
}

func TestNormalizeWhitespace(t *testing.T) {
	ds := dataset.New([]string{"A", "N"}, []dataset.Row{
		{"A": dataset.Str("  hello    world\t"), "N": dataset.Num(7)},
		{"A": dataset.Str("\uFEFFx"), "N": dataset.Num(1)},
		{"A": dataset.Str("clean"), "N": dataset.Bool(true)},
	})

	out := NormalizeWhitespace(ds)

	assert.Equal(t, []string{"hello world", "x", "clean"}, column(out.Dataset, "A"))
	assert.Equal(t, dataset.KindNumber, out.Dataset.Cell(0, "N").Kind())
	assert.Equal(t, dataset.KindBool, out.Dataset.Cell(2, "N").Kind())
	assert.Equal(t, 2, out.Affected)
	assert.Equal(t, "Deep cleaned 2 rows.", out.Message)
}

func TestNormalizeWhitespace_AlreadyClean(t *testing.T) {
	out := NormalizeWhitespace(strRows("A", "a b", "c"))

	assert.True(t, out.Noop)
	assert.Equal(t, "Data is already clean.", out.Message)
}

func TestDeepCleanThenDedupe(t *testing.T) {
	ds := strRows("A", "  x  ", "x")

	cleaned := NormalizeWhitespace(ds).Dataset
	out := Deduplicate(cleaned)

	assert.Equal(t, []string{"x"}, column(out.Dataset, "A"))
}

func TestDropEmptyRows(t *testing.T) {
	ds := dataset.New([]string{"A", "B"}, []dataset.Row{
		{"A": dataset.Str("x"), "B": dataset.Str("")},
		{"A": dataset.Str("  "), "B": dataset.Null()},
		{"A": dataset.Str(""), "B": dataset.Num(0)},
	})

	out := DropEmptyRows(ds)

	require.Equal(t, 2, out.Dataset.Len())
	assert.Equal(t, "x", out.Dataset.Cell(0, "A").String())
	assert.Equal(t, "", out.Dataset.Cell(0, "B").String(), "blank cells in kept rows stay")
	assert.Equal(t, "0", out.Dataset.Cell(1, "B").String())
	assert.Equal(t, "Removed 1 empty rows.", out.Message)
}

func TestDropEmptyRows_NoneEmpty(t *testing.T) {
	out := DropEmptyRows(strRows("A", "a"))

	assert.True(t, out.Noop)
	assert.Equal(t, "No empty rows found.", out.Message)
}

func TestTitleCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hello world", "Hello World"},
		{"HELLO WORLD", "Hello World"},
		{"o'brien", "O'brien"},
		{"mary-jane smith", "Mary-jane Smith"},
		{"  two  spaces ", "  Two  Spaces "},
		{"(quoted) text", "(Quoted) Text"},
		{"nasa", "Nasa"},
		{"123abc", "123abc"},
		{"élan vital", "Élan Vital"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			out := TitleCase(strRows("A", tt.in))
			assert.Equal(t, tt.want, out.Dataset.Cell(0, "A").String())
		})
	}
}

func TestTitleCase_LeavesNonText(t *testing.T) {
	ds := dataset.New([]string{"A"}, []dataset.Row{{"A": dataset.Num(12)}, {"A": dataset.Null()}})

	out := TitleCase(ds)

	assert.Equal(t, dataset.KindNumber, out.Dataset.Cell(0, "A").Kind())
	assert.True(t, out.Dataset.Cell(1, "A").IsNull())
	assert.Equal(t, "Standardized text case (Title Case).", out.Message)
	assert.False(t, out.Noop, "title case always reports success")
}

func TestOperations_Idempotent(t *testing.T) {
	ds := dataset.New([]string{"A", "B"}, []dataset.Row{
		{"A": dataset.Str("  ann  SMITH "), "B": dataset.Num(1)},
		{"A": dataset.Str("ann smith"), "B": dataset.Str("1")},
		{"A": dataset.Str(" "), "B": dataset.Null()},
		{"A": dataset.Str("o'BRIEN  jr"), "B": dataset.Bool(false)},
		{"A": dataset.Str("straße"), "B": dataset.Str("")},
	})

	for _, op := range All() {
		t.Run(op.ID, func(t *testing.T) {
			once := op.Apply(ds).Dataset
			twice := op.Apply(once).Dataset

			require.Equal(t, once.Len(), twice.Len())
			for i := range once.Rows {
				for _, h := range once.Headers {
					assert.True(t, once.Cell(i, h).Equal(twice.Cell(i, h)),
						"row %d %s: %#v then %#v", i, h, once.Cell(i, h), twice.Cell(i, h))
				}
			}
		})
	}
}

func TestOperations_EmptyDataset(t *testing.T) {
	empty := dataset.New([]string{"A"}, nil)

	for _, op := range All() {
		out := op.Apply(empty)
		assert.True(t, out.Noop, op.ID)
		assert.Equal(t, 0, out.Dataset.Len(), op.ID)
		assert.Equal(t, []string{"A"}, out.Dataset.Headers, op.ID)
	}
}

func TestOperations_PreserveHeaders(t *testing.T) {
	ds := dataset.New([]string{"Z", "A", "M"}, []dataset.Row{
		{"Z": dataset.Str(" a "), "A": dataset.Str("b"), "M": dataset.Str("c")},
	})

	for _, op := range All() {
		out := op.Apply(ds)
		assert.Equal(t, []string{"Z", "A", "M"}, out.Dataset.Headers, op.ID)
		assert.NoError(t, out.Dataset.Validate(), op.ID)
	}
}
