package analytics

import (
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCompletedItem_StoredLayout(t *testing.T) {
	item := map[string]types.AttributeValue{
		"id":              &types.AttributeValueMemberS{Value: "c6d1"},
		"id_agendamento":  &types.AttributeValueMemberN{Value: "42"},
		"estabelecimento": &types.AttributeValueMemberN{Value: "7"},
		"servico_nome":    &types.AttributeValueMemberS{Value: "Corte"},
		"valor":           &types.AttributeValueMemberN{Value: "80.50"},
		"data_inicio":     &types.AttributeValueMemberS{Value: "2030-03-04T11:00:00Z"},
	}

	r, err := parseCompletedItem(item)
	require.NoError(t, err)
	assert.Equal(t, int64(42), r.AppointmentID)
	assert.Equal(t, int64(7), r.EstablishmentID)
	assert.InDelta(t, 80.5, r.Amount, 0.001)
	assert.True(t, r.StartedAt.Equal(time.Date(2030, time.March, 4, 11, 0, 0, 0, time.UTC)))
	assert.True(t, r.FinishedAt.IsZero())
}

func TestParseCompletedItem_KeepsFirstError(t *testing.T) {
	item := map[string]types.AttributeValue{
		"id":             &types.AttributeValueMemberS{Value: "x"},
		"id_agendamento": &types.AttributeValueMemberN{Value: "abc"},
		"data_inicio":    &types.AttributeValueMemberS{Value: "ontem"},
	}

	_, err := parseCompletedItem(item)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id_agendamento")
}

func TestTimeAttrIsUTC(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	v := timeAttr(time.Date(2030, time.March, 4, 8, 0, 0, 0, loc))
	assert.Equal(t, "2030-03-04T11:00:00Z", v.(*types.AttributeValueMemberS).Value)
}
