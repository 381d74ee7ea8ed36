package engine_test

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"metaql/engine"
	"metaql/internal/domain"
	"metaql/internal/testutil"
)

func newService(t *testing.T) *engine.Service {
	t.Helper()
	return engine.NewService(testutil.Catalog(t), slog.New(slog.DiscardHandler))
}

func TestService_Rewrite(t *testing.T) {
	svc := newService(t)
	res, err := svc.Rewrite(context.Background(), "SELECT TOP 10 Ссылка AS [Ссылка] FROM Справочник.Номенклатура")
	require.NoError(t, err)
	assert.Equal(t, "SELECT TOP 10 _IDRRef AS [Ссылка] FROM _Reference123", res.SQL)
	assert.Empty(t, res.Diagnostics)
}

func TestService_RewriteWithParams(t *testing.T) {
	svc := newService(t)
	res, err := svc.RewriteWithParams(context.Background(),
		"DECLARE @code nvarchar(9); SELECT Наименование FROM Справочник.Номенклатура WHERE Код = @code",
		map[string]any{"code": "000000001"})
	require.NoError(t, err)
	assert.Equal(t, "DECLARE @code nvarchar(9) = N'000000001';\nSELECT _Description FROM _Reference123 WHERE _Code = @code", res.SQL)
}

func TestService_CancelledContext(t *testing.T) {
	svc := newService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Rewrite(ctx, "SELECT 1")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = svc.Complete(ctx, "SELECT 1", 0)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = svc.Entities(ctx, "", "", "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestService_Complete(t *testing.T) {
	svc := newService(t)
	res, err := svc.Complete(context.Background(), "SELECT f FROM ", 14)
	require.NoError(t, err)
	assert.Equal(t, "table", res.Context.Kind.String())
	assert.NotEmpty(t, res.Suggestions)
	assert.NotEmpty(t, res.Diagnostics)

	_, err = svc.Complete(context.Background(), "SELECT", 7)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestService_Entities(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	objs, err := svc.Entities(ctx, "", "Справочник", "контр")
	require.NoError(t, err)
	require.Len(t, objs, 2)
	assert.Equal(t, "Контрагенты", objs[0].Name)

	objs, err = svc.Entities(ctx, "", "document", "")
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, "Продажа", objs[0].Name)

	objs, err = svc.Entities(ctx, "archive", "", "")
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, "_Reference77", objs[0].TableName)

	_, err = svc.Entities(ctx, "nowhere", "", "")
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)

	_, err = svc.Entities(ctx, "", "Таблица", "")
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = svc.Entities(ctx, "", "table-part", "")
	assert.ErrorAs(t, err, &verr)
}

func TestService_Entity(t *testing.T) {
	svc := newService(t)
	obj, err := svc.Entity(context.Background(), "", "Документ.Продажа.Товары")
	require.NoError(t, err)
	assert.Equal(t, "_Document200_VT203", obj.TableName)

	_, err = svc.Entity(context.Background(), "", "Документ.Нет")
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestService_ConcurrentRequests(t *testing.T) {
	svc := newService(t)
	queries := map[string]string{
		"SELECT Наименование FROM Справочник.Номенклатура":              "SELECT _Description FROM _Reference123",
		"SELECT Б.Владелец FROM Справочник.ДоговорыКонтрагентов AS Б":    "SELECT (Б._OwnerID_RRRef + Б._OwnerID_RTRef) FROM _Reference125 AS Б",
		"SELECT Номер FROM Документ.Продажа WHERE Основание.TYPE = 0x08": "SELECT _Number FROM _Document200 WHERE _Fld202_TYPE = 0x08",
		"SELECT Наименование FROM archive.Справочник.Номенклатура":      "SELECT _Description FROM archive.._Reference77",
	}

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(8)
	for i := 0; i < 64; i++ {
		for in, want := range queries {
			g.Go(func() error {
				res, err := svc.Rewrite(ctx, in)
				if err != nil {
					return err
				}
				if res.SQL != want {
					return fmt.Errorf("rewrite %q: got %q, want %q", in, res.SQL, want)
				}
				items, err := svc.Complete(ctx, "SELECT f FROM ", 14)
				if err != nil {
					return err
				}
				if len(items.Suggestions) == 0 {
					return fmt.Errorf("no suggestions")
				}
				return nil
			})
		}
	}
	require.NoError(t, g.Wait())
}
