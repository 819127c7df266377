package analytics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"agendavip/config"
	"agendavip/internal/domain"
)

// Store - хранилище аналитики выполненных услуг и начисленных баллов.
type Store interface {
	PutCompleted(ctx context.Context, record domain.CompletedService) error
	PutLoyaltyPoint(ctx context.Context, point domain.LoyaltyPoint) error
	// ListCompleted возвращает записи заведения с data_inicio в [from, to).
	ListCompleted(ctx context.Context, establishmentID int64, from, to time.Time) ([]domain.CompletedService, error)
}

type DynamoStore struct {
	client         *dynamodb.Client
	completedTable string
	loyaltyTable   string
	logger         *zap.Logger
}

func NewDynamoStore(ctx context.Context, cfg config.AnalyticsConfig, logger *zap.Logger) (*DynamoStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки конфигурации AWS: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &DynamoStore{
		client:         client,
		completedTable: cfg.CompletedTable,
		loyaltyTable:   cfg.LoyaltyPointsTable,
		logger:         logger,
	}, nil
}

func (s *DynamoStore) PutCompleted(ctx context.Context, record domain.CompletedService) error {
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.completedTable),
		Item:      completedItem(record),
	})
	if err != nil {
		return fmt.Errorf("ошибка записи выполненной услуги в DynamoDB: %w", err)
	}
	return nil
}

func (s *DynamoStore) PutLoyaltyPoint(ctx context.Context, point domain.LoyaltyPoint) error {
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.loyaltyTable),
		Item: map[string]types.AttributeValue{
			"id":              stringAttr(point.ID),
			"cliente":         intAttr(point.ClientID),
			"estabelecimento": intAttr(point.EstablishmentID),
			"id_agendamento":  intAttr(point.AppointmentID),
			"pontos":          intAttr(int64(point.Points)),
			"criado_em":       timeAttr(point.CreatedAt),
		},
	})
	if err != nil {
		return fmt.Errorf("ошибка записи балла лояльности в DynamoDB: %w", err)
	}
	return nil
}

func (s *DynamoStore) ListCompleted(ctx context.Context, establishmentID int64, from, to time.Time) ([]domain.CompletedService, error) {
	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName:        aws.String(s.completedTable),
		FilterExpression: aws.String("estabelecimento = :est AND data_inicio >= :de AND data_inicio < :ate"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":est": intAttr(establishmentID),
			":de":  timeAttr(from),
			":ate": timeAttr(to),
		},
	})

	var records []domain.CompletedService
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения аналитики из DynamoDB: %w", err)
		}
		for _, item := range page.Items {
			record, err := parseCompletedItem(item)
			if err != nil {
				s.logger.Warn("пропущена некорректная запись аналитики", zap.Error(err))
				continue
			}
			records = append(records, record)
		}
	}

	return records, nil
}

func completedItem(r domain.CompletedService) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id":              stringAttr(r.ID),
		"id_agendamento":  intAttr(r.AppointmentID),
		"cliente":         intAttr(r.ClientID),
		"profissional":    intAttr(r.ProfessionalID),
		"estabelecimento": intAttr(r.EstablishmentID),
		"servico":         intAttr(r.ServiceID),
		"servico_nome":    stringAttr(r.ServiceName),
		"tempo":           intAttr(int64(r.Duration)),
		"valor":           &types.AttributeValueMemberN{Value: strconv.FormatFloat(r.Amount, 'f', 2, 64)},
		"data_inicio":     timeAttr(r.StartedAt),
		"data_fim":        timeAttr(r.FinishedAt),
	}
}

func parseCompletedItem(item map[string]types.AttributeValue) (domain.CompletedService, error) {
	var (
		r   domain.CompletedService
		err error
	)
	p := itemParser{item: item}

	r.ID = p.str("id")
	r.AppointmentID = p.int("id_agendamento")
	r.ClientID = p.int("cliente")
	r.ProfessionalID = p.int("profissional")
	r.EstablishmentID = p.int("estabelecimento")
	r.ServiceID = p.int("servico")
	r.ServiceName = p.str("servico_nome")
	r.Duration = int(p.int("tempo"))
	r.Amount = p.float("valor")
	r.StartedAt = p.time("data_inicio")
	r.FinishedAt = p.time("data_fim")

	if p.err != nil {
		err = fmt.Errorf("запись %q: %w", r.ID, p.err)
	}
	return r, err
}

func stringAttr(v string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: v}
}

func intAttr(v int64) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(v, 10)}
}

// timeAttr хранит время строкой RFC3339 в UTC, чтобы строки сравнивались как моменты.
func timeAttr(t time.Time) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: t.UTC().Format(time.RFC3339)}
}

// itemParser запоминает первую ошибку разбора.
type itemParser struct {
	item map[string]types.AttributeValue
	err  error
}

func (p *itemParser) raw(key string) (string, bool) {
	switch v := p.item[key].(type) {
	case *types.AttributeValueMemberS:
		return v.Value, true
	case *types.AttributeValueMemberN:
		return v.Value, true
	}
	return "", false
}

func (p *itemParser) str(key string) string {
	v, _ := p.raw(key)
	return v
}

func (p *itemParser) int(key string) int64 {
	v, ok := p.raw(key)
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("поле %s: %w", key, err)
	}
	return n
}

func (p *itemParser) float(key string) float64 {
	v, ok := p.raw(key)
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("поле %s: %w", key, err)
	}
	return f
}

func (p *itemParser) time(key string) time.Time {
	v, ok := p.raw(key)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("поле %s: %w", key, err)
	}
	return t
}

// NopStore используется, когда аналитика отключена.
type NopStore struct{}

func (NopStore) PutCompleted(context.Context, domain.CompletedService) error { return nil }

func (NopStore) PutLoyaltyPoint(context.Context, domain.LoyaltyPoint) error { return nil }

func (NopStore) ListCompleted(context.Context, int64, time.Time, time.Time) ([]domain.CompletedService, error) {
	return nil, nil
}
