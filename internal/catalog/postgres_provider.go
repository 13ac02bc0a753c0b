package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// PostgresProvider reads catalogs maintained by the scraping/admin
// collaborators. It only ever issues SELECTs.
type PostgresProvider struct {
	db *sql.DB
}

// NewPostgresProvider wraps an open database handle.
func NewPostgresProvider(db *sql.DB) *PostgresProvider {
	if db == nil {
		panic("catalog: db required")
	}
	return &PostgresProvider{db: db}
}

// Services lists a business's services in catalog order.
func (p *PostgresProvider) Services(ctx context.Context, businessID string) ([]Service, error) {
	if strings.TrimSpace(businessID) == "" {
		return nil, ErrBusinessRequired
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT name, COALESCE(description, ''), COALESCE(price, ''), COALESCE(timeline, ''),
		       COALESCE(benefits, ''), manual_override
		FROM services
		WHERE business_id = $1
		ORDER BY position ASC, id ASC
	`, businessID)
	if err != nil {
		return nil, fmt.Errorf("catalog: query services: %w", err)
	}
	defer rows.Close()

	var services []Service
	for rows.Next() {
		var svc Service
		var benefits string
		if err := rows.Scan(&svc.Name, &svc.Description, &svc.Price, &svc.Timeline, &benefits, &svc.ManualOverride); err != nil {
			return nil, fmt.Errorf("catalog: scan service: %w", err)
		}
		svc.Benefits = splitBenefits(benefits)
		services = append(services, svc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: iterate services: %w", err)
	}
	return Dedupe(services), nil
}

// ContactDetails returns the business's contact row, or zero details when
// none was recorded.
func (p *PostgresProvider) ContactDetails(ctx context.Context, businessID string) (ContactDetails, error) {
	if strings.TrimSpace(businessID) == "" {
		return ContactDetails{}, ErrBusinessRequired
	}

	var details ContactDetails
	err := p.db.QueryRowContext(ctx, `
		SELECT COALESCE(phone, ''), COALESCE(email, ''), COALESCE(address, '')
		FROM business_contacts
		WHERE business_id = $1
	`, businessID).Scan(&details.Phone, &details.Email, &details.Address)
	if errors.Is(err, sql.ErrNoRows) {
		return ContactDetails{}, nil
	}
	if err != nil {
		return ContactDetails{}, fmt.Errorf("catalog: query contact details: %w", err)
	}
	return details, nil
}

// FAQs lists a business's FAQs.
func (p *PostgresProvider) FAQs(ctx context.Context, businessID string) ([]FAQ, error) {
	if strings.TrimSpace(businessID) == "" {
		return nil, ErrBusinessRequired
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT question, answer
		FROM faqs
		WHERE business_id = $1
		ORDER BY position ASC, id ASC
	`, businessID)
	if err != nil {
		return nil, fmt.Errorf("catalog: query faqs: %w", err)
	}
	defer rows.Close()

	var faqs []FAQ
	for rows.Next() {
		var f FAQ
		if err := rows.Scan(&f.Question, &f.Answer); err != nil {
			return nil, fmt.Errorf("catalog: scan faq: %w", err)
		}
		faqs = append(faqs, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: iterate faqs: %w", err)
	}
	return faqs, nil
}

// Benefits are stored one per line.
func splitBenefits(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
