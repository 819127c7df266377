package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"agendavip/internal/analytics"
	"agendavip/internal/domain"
	"agendavip/internal/storage"
)

const (
	reportsFolder   = "relatorios"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type MetricsServiceImpl struct {
	store       analytics.Store
	fileStorage storage.FileStorage
	loc         *time.Location
	logger      *zap.Logger
}

func NewMetricsService(store analytics.Store, fileStorage storage.FileStorage, loc *time.Location, logger *zap.Logger) *MetricsServiceImpl {
	if store == nil {
		store = analytics.NopStore{}
	}
	if fileStorage == nil {
		fileStorage = storage.DisabledStorage{}
	}
	return &MetricsServiceImpl{
		store:       store,
		fileStorage: fileStorage,
		loc:         loc,
		logger:      logger,
	}
}

func (s *MetricsServiceImpl) EstablishmentMetrics(ctx context.Context, identity domain.Identity, establishmentID int64, year int) (*domain.EstablishmentMetrics, error) {
	if !identity.AdministersEstablishment(establishmentID) {
		return nil, domain.NewForbiddenError("apenas o administrador do estabelecimento pode ver as métricas")
	}
	if year < 2000 || year > 9999 {
		return nil, domain.NewValidationError("ano", "ano inválido")
	}

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, s.loc)
	records, err := s.store.ListCompleted(ctx, establishmentID, from, from.AddDate(1, 0, 0))
	if err != nil {
		s.logger.Error("ошибка чтения аналитики", zap.Int64("establishment_id", establishmentID), zap.Error(err))
		return nil, err
	}

	m := aggregateMetrics(establishmentID, year, records, s.loc)
	return &m, nil
}

// aggregateMetrics: выручка по 12 месяцам, число услуг по дням недели и по услугам.
func aggregateMetrics(establishmentID int64, year int, records []domain.CompletedService, loc *time.Location) domain.EstablishmentMetrics {
	m := domain.EstablishmentMetrics{
		EstablishmentID: establishmentID,
		Year:            year,
		MonthlyRevenue:  make([]domain.MonthlyRevenue, 12),
	}
	for i := range m.MonthlyRevenue {
		m.MonthlyRevenue[i].Month = fmt.Sprintf("%04d-%02d", year, i+1)
	}

	byWeekday := make(map[domain.Weekday]int)
	byService := make(map[int64]*domain.ServiceCount)

	for _, r := range records {
		local := r.StartedAt.In(loc)
		if local.Year() != year {
			continue
		}

		month := &m.MonthlyRevenue[local.Month()-1]
		month.Revenue += r.Amount
		month.Count++
		m.TotalRevenue += r.Amount

		byWeekday[domain.WeekdayOf(local)]++

		sc, ok := byService[r.ServiceID]
		if !ok {
			sc = &domain.ServiceCount{ServiceID: r.ServiceID, ServiceName: r.ServiceName}
			byService[r.ServiceID] = sc
		}
		sc.Count++
	}

	for _, w := range domain.AllWeekdays() {
		m.ByWeekday = append(m.ByWeekday, domain.WeekdayCount{Weekday: w.Label(), Count: byWeekday[w]})
	}

	m.ByService = make([]domain.ServiceCount, 0, len(byService))
	for _, sc := range byService {
		m.ByService = append(m.ByService, *sc)
	}
	sort.Slice(m.ByService, func(i, j int) bool {
		if m.ByService[i].Count != m.ByService[j].Count {
			return m.ByService[i].Count > m.ByService[j].Count
		}
		return m.ByService[i].ServiceName < m.ByService[j].ServiceName
	})

	return m
}

func (s *MetricsServiceImpl) Export(ctx context.Context, identity domain.Identity, establishmentID int64, year int) (*domain.MetricsExport, error) {
	m, err := s.EstablishmentMetrics(ctx, identity, establishmentID, year)
	if err != nil {
		return nil, err
	}

	data, err := buildMetricsWorkbook(*m)
	if err != nil {
		return nil, err
	}

	key, err := s.fileStorage.UploadFile(ctx, reportsFolder, data, ".xlsx", xlsxContentType)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки отчета: %w", err)
	}

	url, err := s.fileStorage.GetPresignedURL(ctx, key, 0)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения ссылки на отчет: %w", err)
	}

	s.logger.Info("отчет по метрикам выгружен", zap.Int64("establishment_id", establishmentID), zap.String("key", key))
	return &domain.MetricsExport{Key: key, URL: url}, nil
}

func buildMetricsWorkbook(m domain.EstablishmentMetrics) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("ошибка создания стиля: %w", err)
	}

	sheets := []struct {
		name   string
		header []any
		rows   [][]any
	}{
		{name: "Faturamento", header: []any{"Mês", "Faturamento", "Atendimentos"}},
		{name: "Dias da semana", header: []any{"Dia", "Atendimentos"}},
		{name: "Serviços", header: []any{"Serviço", "Atendimentos"}},
	}
	for _, mr := range m.MonthlyRevenue {
		sheets[0].rows = append(sheets[0].rows, []any{mr.Month, mr.Revenue, mr.Count})
	}
	sheets[0].rows = append(sheets[0].rows, []any{"Total", m.TotalRevenue})
	for _, wc := range m.ByWeekday {
		sheets[1].rows = append(sheets[1].rows, []any{wc.Weekday, wc.Count})
	}
	for _, sc := range m.ByService {
		sheets[2].rows = append(sheets[2].rows, []any{sc.ServiceName, sc.Count})
	}

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.name); err != nil {
				return nil, fmt.Errorf("ошибка переименования листа: %w", err)
			}
		} else if _, err := f.NewSheet(sheet.name); err != nil {
			return nil, fmt.Errorf("ошибка создания листа %s: %w", sheet.name, err)
		}

		if err := writeRow(f, sheet.name, 1, sheet.header); err != nil {
			return nil, err
		}
		last, _ := excelize.CoordinatesToCellName(len(sheet.header), 1)
		if err := f.SetCellStyle(sheet.name, "A1", last, bold); err != nil {
			return nil, fmt.Errorf("ошибка оформления заголовка: %w", err)
		}

		for r, row := range sheet.rows {
			if err := writeRow(f, sheet.name, r+2, row); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("ошибка формирования xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("ошибка адреса ячейки: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("ошибка записи ячейки %s: %w", cell, err)
		}
	}
	return nil
}
