package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCatalogRoundTrip(t *testing.T) {
	original := []*Supertag{
		{
			ID: "task", Name: "task", NormalizedName: "task",
			Parents: []string{"item"},
			Fields: []Field{
				{AttributeID: "due-id", Name: "Due", NormalizedName: "due", DataType: DataTypeDate},
			},
		},
	}

	doc := ToCatalogDocument(original)
	require.Equal(t, 1, doc.Version)

	roundTripped := FromCatalogDocument(doc)
	require.Len(t, roundTripped, 1)
	require.Equal(t, original[0].ID, roundTripped[0].ID)
	require.Equal(t, original[0].Parents, roundTripped[0].Parents)
	require.Equal(t, original[0].Fields[0].NormalizedName, roundTripped[0].Fields[0].NormalizedName)
	require.Equal(t, original[0].Fields[0].DataType, roundTripped[0].Fields[0].DataType)
}

func TestCatalogOmitsAbsentDescription(t *testing.T) {
	doc := ToCatalogDocument([]*Supertag{{ID: "t", Name: "t", NormalizedName: "t"}})
	require.Nil(t, doc.Supertags[0].Description)
	require.Nil(t, doc.Supertags[0].Color)
}
