package sources

import (
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giygas/nitrosamine-monitor/entities"
)

func TestReadUploadCSV(t *testing.T) {
	csv := "\xef\xbb\xbfSPT No.,Product,Product 2,Remark\n" +
		"SPT-001,Drugname Hydrochloride (USP),,ok\n" +
		"SPT-002,Compound 12-B,,skip\n" +
		"SPT-003,Valsartan,Sodium,merged\n" +
		"SPT-004,Drugname Hydrochloride,,duplicate\n" +
		",ab,,too short\n" +
		"SPT-006,nan,,\n"

	list, err := ReadUpload("products.csv", []byte(csv))
	require.NoError(t, err)
	assert.Equal(t, []entities.ProductEntry{
		{Name: "Drugname Hydrochloride", TrackingID: "SPT-001"},
		{Name: "Valsartan Sodium", TrackingID: "SPT-003"},
	}, list.Entries)
	assert.NotEmpty(t, list.Notes)
}

func TestReadUploadCSVWindows1252(t *testing.T) {
	csv := []byte("Name\nAcide \x93special\x94\n")
	list, err := ReadUpload("list.CSV", csv)
	require.NoError(t, err)
	require.Len(t, list.Entries, 1)
	assert.Equal(t, "Acide “special”", list.Entries[0].Name)
	assert.Equal(t, entities.NoTrackingID, list.Entries[0].TrackingID)
}

func TestReadUploadFallsBackToFirstColumn(t *testing.T) {
	list, err := ReadUpload("x.csv", []byte("Molecule,Code\nOmeprazole,1\n"))
	require.NoError(t, err)
	require.Len(t, list.Entries, 1)
	assert.Equal(t, "Omeprazole", list.Entries[0].Name)
}

func TestReadUploadSubstringColumn(t *testing.T) {
	list, err := ReadUpload("x.csv", []byte("Code,API description\n1,Omeprazole\n"))
	require.NoError(t, err)
	require.Len(t, list.Entries, 1)
	assert.Equal(t, "Omeprazole", list.Entries[0].Name)
}

func TestReadUploadXLSX(t *testing.T) {
	book := buildWorkbook(t, map[string][][]any{
		"List": {
			{"產品", "SPT"},
			{"Zeta drug", "S-2"},
			{"Alpha drug™", "S-1"},
		},
	}, []string{"List"})

	list, err := ReadUpload("products.xlsx", book)
	require.NoError(t, err)
	assert.Equal(t, []entities.ProductEntry{
		{Name: "Alpha drug", TrackingID: "S-1"},
		{Name: "Zeta drug", TrackingID: "S-2"},
	}, list.Entries)
}

func TestReadUploadUserInputFailures(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content []byte
	}{
		{"unsupported type", "list.pdf", []byte("%PDF-")},
		{"corrupt workbook", "list.xlsx", []byte("not a zip")},
		{"empty csv", "list.csv", nil},
		{"no usable names", "list.csv", []byte("Product\nab\nCompound 1\n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadUpload(tt.file, tt.content)
			require.Error(t, err)
			assert.Equal(t, UserInputFailure, KindOf(err))
		})
	}
}

func TestIsValidProductName(t *testing.T) {
	assert.True(t, IsValidProductName("Valsartan"))
	assert.False(t, IsValidProductName("API Name"))
	assert.False(t, IsValidProductName("Page 2 of 3"))
	assert.False(t, IsValidProductName("ScinoPharm Taiwan"))
	assert.False(t, IsValidProductName("ab"))
	assert.False(t, IsValidProductName("aé"))
	assert.False(t, IsValidProductName("12-34"))
}

func TestIsGenericCompound(t *testing.T) {
	assert.True(t, isGenericCompound("Compound 12-B"))
	assert.True(t, isGenericCompound("compound"))
	assert.False(t, isGenericCompound("Compound X (salt)"))
	assert.False(t, isGenericCompound("Valsartan"))
}

func TestTextLineCellsAndText(t *testing.T) {
	line := newTextLine(pdf.TextHorizontal{
		{S: "Regulatory", X: 300, W: 50, FontSize: 10},
		{S: "Valsartan", X: 10, W: 45, FontSize: 10},
		{S: "Sodium", X: 57, W: 30, FontSize: 10},
		{S: "DMF", X: 120, W: 20, FontSize: 10},
	})

	assert.Equal(t, []string{"Valsartan Sodium", "DMF", "Regulatory"}, line.cells())
	assert.Equal(t, "Valsartan Sodium  DMF  Regulatory", line.text())
}

func TestTextLineNarrowColumns(t *testing.T) {
	line := newTextLine(pdf.TextHorizontal{
		{S: "Omeprazole", X: 10, W: 50, FontSize: 10},
		{S: "CEP", X: 70, W: 15, FontSize: 10},
	})
	assert.Equal(t, []string{"Omeprazole CEP"}, line.cells(), "a one-em gap is not a table column")
	assert.Equal(t, "Omeprazole  CEP", line.text())
}

func TestProductSetFirstWinsAndSorts(t *testing.T) {
	s := newProductSet()
	assert.True(t, s.add("Beta", "1"))
	assert.False(t, s.add("Beta", "2"))
	assert.False(t, s.add("ab", ""))
	assert.False(t, s.add("藥名", ""))
	assert.True(t, s.add("Alpha", ""))
	assert.Equal(t, []entities.ProductEntry{
		{Name: "Alpha", TrackingID: entities.NoTrackingID},
		{Name: "Beta", TrackingID: "1"},
	}, s.sorted())
}
