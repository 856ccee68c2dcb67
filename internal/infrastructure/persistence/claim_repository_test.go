package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/localcooks/backend/internal/domain/claims"
	"github.com/localcooks/backend/internal/domain/shared"
	"github.com/localcooks/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockClaimRepository creates a GormClaimRepository with a mocked SQL connection
func newMockClaimRepository(t *testing.T) (*GormClaimRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormClaimRepository(gormDB), mock, mockDB
}

func claimRows(id uuid.UUID, number, status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "claim_number", "booking_id", "chef_id", "status", "charge_status", "version"}).
		AddRow(id, number, uuid.New(), uuid.New(), status, "NONE", 1)
}

func TestGormClaimRepository_FindByID(t *testing.T) {
	t.Run("finds claim with evidence loaded", func(t *testing.T) {
		repo, mock, mockDB := newMockClaimRepository(t)
		defer mockDB.Close()

		claimID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "damage_claims" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(claimID, 1).
			WillReturnRows(claimRows(claimID, "DC-2026-0017", "OPEN"))
		mock.ExpectQuery(`SELECT \* FROM "claim_evidence"`).
			WithArgs(claimID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "claim_id"}))

		claim, err := repo.FindByID(context.Background(), claimID)

		assert.NoError(t, err)
		assert.NotNil(t, claim)
		assert.Equal(t, "DC-2026-0017", claim.ClaimNumber)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for unknown id", func(t *testing.T) {
		repo, mock, mockDB := newMockClaimRepository(t)
		defer mockDB.Close()

		claimID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "damage_claims" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(claimID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		claim, err := repo.FindByID(context.Background(), claimID)

		assert.Nil(t, claim)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormClaimRepository_FindActiveByBookingID(t *testing.T) {
	t.Run("finds the open claim on a booking", func(t *testing.T) {
		repo, mock, mockDB := newMockClaimRepository(t)
		defer mockDB.Close()

		bookingID := uuid.New()
		claimID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "damage_claims" WHERE booking_id = \$1 AND status IN \(\$2,\$3\) ORDER BY .* LIMIT .*`).
			WithArgs(bookingID, "OPEN", "DISPUTED", 1).
			WillReturnRows(claimRows(claimID, "DC-2026-0017", "DISPUTED"))
		mock.ExpectQuery(`SELECT \* FROM "claim_evidence"`).
			WithArgs(claimID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "claim_id"}))

		claim, err := repo.FindActiveByBookingID(context.Background(), bookingID)

		assert.NoError(t, err)
		require.NotNil(t, claim)
		assert.Equal(t, claims.ClaimStatusDisputed, claim.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns nil without error when no claim is active", func(t *testing.T) {
		repo, mock, mockDB := newMockClaimRepository(t)
		defer mockDB.Close()

		bookingID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "damage_claims" WHERE booking_id = \$1 AND status IN \(\$2,\$3\) ORDER BY .* LIMIT .*`).
			WithArgs(bookingID, "OPEN", "DISPUTED", 1).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		claim, err := repo.FindActiveByBookingID(context.Background(), bookingID)

		assert.NoError(t, err)
		assert.Nil(t, claim)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormClaimRepository_FindOpenPastDeadline(t *testing.T) {
	t.Run("selects open claims past their response deadline", func(t *testing.T) {
		repo, mock, mockDB := newMockClaimRepository(t)
		defer mockDB.Close()

		now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

		mock.ExpectQuery(`SELECT \* FROM "damage_claims" WHERE status = \$1 AND response_deadline <= \$2 ORDER BY response_deadline ASC LIMIT .*`).
			WithArgs("OPEN", now, 25).
			WillReturnRows(claimRows(uuid.New(), "DC-2026-0017", "OPEN"))

		results, err := repo.FindOpenPastDeadline(context.Background(), now, 25)

		assert.NoError(t, err)
		assert.Len(t, results, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormClaimRepository_FindRetryableCharges(t *testing.T) {
	t.Run("selects chargeable claims with failed attempts left", func(t *testing.T) {
		repo, mock, mockDB := newMockClaimRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "damage_claims" WHERE status IN \(\$1,\$2,\$3\) AND \(charge_status = \$4 AND charge_attempts < \$5\) ORDER BY updated_at ASC LIMIT .*`).
			WithArgs("ACCEPTED", "UNCONTESTED", "UPHELD", "FAILED", 3, 25).
			WillReturnRows(claimRows(uuid.New(), "DC-2026-0017", "ACCEPTED"))

		results, err := repo.FindRetryableCharges(context.Background(), 3, 25)

		assert.NoError(t, err)
		assert.Len(t, results, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormClaimRepository_GenerateClaimNumber(t *testing.T) {
	year := time.Now().Year()
	prefix := fmt.Sprintf("DC-%d-", year)

	t.Run("starts the sequence when no claims exist this year", func(t *testing.T) {
		repo, mock, mockDB := newMockClaimRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT "claim_number" FROM "damage_claims" WHERE claim_number LIKE \$1 ORDER BY claim_number DESC LIMIT .*`).
			WithArgs(prefix+"%", 1).
			WillReturnRows(sqlmock.NewRows([]string{"claim_number"}))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "damage_claims" WHERE claim_number = \$1`).
			WithArgs(prefix + "0001").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		number, err := repo.GenerateClaimNumber(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, prefix+"0001", number)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("increments past the highest existing number", func(t *testing.T) {
		repo, mock, mockDB := newMockClaimRepository(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT "claim_number" FROM "damage_claims" WHERE claim_number LIKE \$1 ORDER BY claim_number DESC LIMIT .*`).
			WithArgs(prefix+"%", 1).
			WillReturnRows(sqlmock.NewRows([]string{"claim_number"}).AddRow(prefix + "0016"))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "damage_claims" WHERE claim_number = \$1`).
			WithArgs(prefix + "0017").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		number, err := repo.GenerateClaimNumber(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, prefix+"0017", number)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormClaimRepository_Update(t *testing.T) {
	newPersistedClaim := func(t *testing.T) *claims.DamageClaim {
		t.Helper()
		amount := valueobject.NewMoneyUSD(decimal.RequireFromString("350"))
		maxAmount := valueobject.NewMoneyUSD(decimal.RequireFromString("5000"))
		claim, err := claims.NewDamageClaim(
			"DC-2026-0017",
			uuid.New(),
			"BK-2026-0042",
			uuid.New(),
			uuid.New(),
			uuid.New(),
			"Cracked prep table",
			"Left side split during the Friday shift",
			amount,
			maxAmount,
			7*24*time.Hour,
		)
		require.NoError(t, err)
		return claim
	}

	t.Run("bumps the version on success", func(t *testing.T) {
		repo, mock, mockDB := newMockClaimRepository(t)
		defer mockDB.Close()

		claim := newPersistedClaim(t)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "damage_claims" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.Update(context.Background(), claim)

		assert.NoError(t, err)
		assert.Equal(t, 2, claim.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects a stale version", func(t *testing.T) {
		repo, mock, mockDB := newMockClaimRepository(t)
		defer mockDB.Close()

		claim := newPersistedClaim(t)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "damage_claims" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "damage_claims" WHERE id = \$1`).
			WithArgs(claim.ID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectRollback()

		err := repo.Update(context.Background(), claim)

		assertConflictErrorCode(t, err, "CONCURRENT_MODIFICATION")
		assert.Equal(t, 1, claim.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("saves new evidence rows alongside the root", func(t *testing.T) {
		repo, mock, mockDB := newMockClaimRepository(t)
		defer mockDB.Close()

		claim := newPersistedClaim(t)
		_, err := claim.AttachEvidence("claims/"+claim.ID.String()+"/table.jpg", "table.jpg", "image/jpeg", 204800, claim.ManagerID)
		require.NoError(t, err)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "damage_claims" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE "claim_evidence" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`INSERT INTO "claim_evidence"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err = repo.Update(context.Background(), claim)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
