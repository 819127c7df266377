package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"agendavip/internal/domain"
)

type memAnalytics struct {
	records []domain.CompletedService
}

func (m *memAnalytics) PutCompleted(_ context.Context, r domain.CompletedService) error {
	m.records = append(m.records, r)
	return nil
}

func (m *memAnalytics) PutLoyaltyPoint(context.Context, domain.LoyaltyPoint) error { return nil }

func (m *memAnalytics) ListCompleted(_ context.Context, establishmentID int64, from, to time.Time) ([]domain.CompletedService, error) {
	var list []domain.CompletedService
	for _, r := range m.records {
		if r.EstablishmentID == establishmentID && !r.StartedAt.Before(from) && r.StartedAt.Before(to) {
			list = append(list, r)
		}
	}
	return list, nil
}

type memFileStorage struct {
	files map[string][]byte
}

func (m *memFileStorage) UploadFile(_ context.Context, folder string, data []byte, ext, _ string) (string, error) {
	if m.files == nil {
		m.files = map[string][]byte{}
	}
	key := folder + "/arquivo" + ext
	m.files[key] = data
	return key, nil
}

func (m *memFileStorage) DeleteFile(_ context.Context, key string) error {
	delete(m.files, key)
	return nil
}

func (m *memFileStorage) GetFile(_ context.Context, key string) ([]byte, error) {
	return m.files[key], nil
}

func (m *memFileStorage) GetPresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://storage.local/" + key, nil
}

func completed(serviceID int64, name string, amount float64, startedAt time.Time) domain.CompletedService {
	return domain.CompletedService{
		EstablishmentID: testEstablishmentID,
		ServiceID:       serviceID,
		ServiceName:     name,
		Amount:          amount,
		StartedAt:       startedAt,
	}
}

func TestAggregateMetrics(t *testing.T) {
	records := []domain.CompletedService{
		completed(1, "Corte", 80, time.Date(2030, time.March, 4, 9, 0, 0, 0, time.UTC)),  // segunda
		completed(1, "Corte", 80, time.Date(2030, time.March, 11, 9, 0, 0, 0, time.UTC)), // segunda
		completed(2, "Barba", 40, time.Date(2030, time.July, 6, 9, 0, 0, 0, time.UTC)),   // sábado
		completed(3, "Combo", 110, time.Date(2031, time.January, 1, 9, 0, 0, 0, time.UTC)),
	}

	m := aggregateMetrics(testEstablishmentID, 2030, records, time.UTC)

	require.Len(t, m.MonthlyRevenue, 12)
	assert.Equal(t, "2030-03", m.MonthlyRevenue[2].Month)
	assert.InDelta(t, 160, m.MonthlyRevenue[2].Revenue, 0.001)
	assert.Equal(t, 2, m.MonthlyRevenue[2].Count)
	assert.InDelta(t, 40, m.MonthlyRevenue[6].Revenue, 0.001)
	assert.InDelta(t, 200, m.TotalRevenue, 0.001)

	require.Len(t, m.ByWeekday, 7)
	assert.Equal(t, domain.WeekdayCount{Weekday: domain.Monday.Label(), Count: 2}, m.ByWeekday[0])
	assert.Equal(t, domain.WeekdayCount{Weekday: domain.Saturday.Label(), Count: 1}, m.ByWeekday[5])

	require.Len(t, m.ByService, 2)
	assert.Equal(t, "Corte", m.ByService[0].ServiceName)
	assert.Equal(t, 2, m.ByService[0].Count)
}

func TestMetricsService_ExportWorkbook(t *testing.T) {
	store := &memAnalytics{records: []domain.CompletedService{
		completed(1, "Corte", 80, time.Date(2030, time.March, 4, 9, 0, 0, 0, time.UTC)),
	}}
	files := &memFileStorage{}
	svc := NewMetricsService(store, files, time.UTC, zap.NewNop())

	export, err := svc.Export(t.Context(), adminIdentity(), testEstablishmentID, 2030)
	require.NoError(t, err)
	assert.Equal(t, "relatorios/arquivo.xlsx", export.Key)
	assert.Equal(t, "https://storage.local/relatorios/arquivo.xlsx", export.URL)

	f, err := excelize.OpenReader(bytes.NewReader(files.files[export.Key]))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Faturamento", "Dias da semana", "Serviços"}, f.GetSheetList())
	value, err := f.GetCellValue("Faturamento", "A4")
	require.NoError(t, err)
	assert.Equal(t, "2030-03", value)
	value, err = f.GetCellValue("Serviços", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Corte", value)
}

func TestMetricsService_Access(t *testing.T) {
	svc := NewMetricsService(&memAnalytics{}, &memFileStorage{}, time.UTC, zap.NewNop())

	_, err := svc.EstablishmentMetrics(t.Context(), professionalIdentity(), testEstablishmentID, 2030)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.EstablishmentMetrics(t.Context(), adminIdentity(), testEstablishmentID, 1999)
	assert.ErrorIs(t, err, domain.ErrValidation)

	m, err := svc.EstablishmentMetrics(t.Context(), adminIdentity(), testEstablishmentID, 2030)
	require.NoError(t, err)
	assert.Zero(t, m.TotalRevenue)
}
