package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "license-navigator/internal/common/errors"
)

func TestLoadPostgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	typeRows := sqlmock.NewRows([]string{"type_id", "display_name", "keywords", "resources"}).
		AddRow("food_hospitality", "Food & Hospitality",
			[]byte(`["restaurant","food"]`), []byte(`["https://example.gov/food-guide"]`)).
		AddRow("retail", "Retail", []byte(`["store","shop"]`), []byte(`[]`))
	mock.ExpectQuery("FROM business_types").WillReturnRows(typeRows)

	templateRows := sqlmock.NewRows([]string{
		"license_id", "type_id", "jurisdiction", "title", "category",
		"cost_min", "cost_max", "timeline_min_weeks", "timeline_max_weeks", "source_urls",
	}).
		AddRow("food-service", "food_hospitality", "", "Food Service License", "health",
			100, 500, 4, 8, []byte(`["https://example.gov/food"]`)).
		AddRow("fl-food-service", "food_hospitality", "FL", "Florida Food Service License", "health",
			200, 800, 6, 10, []byte(`["https://myfloridalicense.com"]`))
	mock.ExpectQuery("FROM license_templates").WillReturnRows(templateRows)

	jurisdictionRows := sqlmock.NewRows([]string{"code", "name", "official_links"}).
		AddRow("FL", "Florida", []byte(`["https://floridarevenue.com"]`))
	mock.ExpectQuery("FROM jurisdictions").WillReturnRows(jurisdictionRows)

	snap, err := LoadPostgres(context.Background(), db)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, "postgres", snap.Version())
	assert.Len(t, snap.ListTypes(), 2)

	j, ok := snap.GetJurisdiction("FL")
	require.True(t, ok)
	assert.Equal(t, "Florida", j.Name)
	assert.Equal(t, []string{"https://floridarevenue.com"}, j.OfficialLinks)

	doc, ok := snap.FindDoc("fl-food-service", "FL")
	require.True(t, ok)
	assert.Equal(t, "food_hospitality", doc.TypeID)
	assert.Equal(t, 200, doc.Template.Cost.Min)
}

func TestLoadPostgres_QueryFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM business_types").WillReturnError(errors.New("connection reset"))

	snap, err := LoadPostgres(context.Background(), db)
	assert.Nil(t, snap)
	assert.Equal(t, apperrors.ErrCodeQueryExecutionFailed, apperrors.CodeOf(err))
}

func TestLoadPostgres_EmptyCatalog(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM business_types").WillReturnRows(
		sqlmock.NewRows([]string{"type_id", "display_name", "keywords", "resources"}))
	mock.ExpectQuery("FROM license_templates").WillReturnRows(sqlmock.NewRows([]string{
		"license_id", "type_id", "jurisdiction", "title", "category",
		"cost_min", "cost_max", "timeline_min_weeks", "timeline_max_weeks", "source_urls",
	}))
	mock.ExpectQuery("FROM jurisdictions").WillReturnRows(
		sqlmock.NewRows([]string{"code", "name", "official_links"}))

	snap, err := LoadPostgres(context.Background(), db)
	assert.Nil(t, snap)
	assert.Equal(t, apperrors.ErrCodeConfigInvalid, apperrors.CodeOf(err))
}
