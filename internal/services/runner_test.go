package services

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmi-ops/sprintload/internal/catalog"
	"github.com/pmi-ops/sprintload/internal/dbtest"
	"github.com/pmi-ops/sprintload/internal/logging"
	"github.com/pmi-ops/sprintload/pkg/sprintload"
)

const testSchemaCSV = `table_name,column_name,is_nullable,data_type,description
person,person_id,no,integer,
person,birth_datetime,yes,datetime,
`

const testScopeCSV = `table_name
person
`

type stubApprover struct {
	approved bool
	err      error
	requests []string
}

func (a *stubApprover) RequestApproval(_ context.Context, schema string) (bool, error) {
	a.requests = append(a.requests, schema)
	return a.approved, a.err
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Load(strings.NewReader(testSchemaCSV), strings.NewReader(testScopeCSV))
	require.NoError(t, err)
	return cat
}

func noopConnectorFactory(*sprintload.ConnectionConfig) (sprintload.Connector, error) {
	return nil, errors.New("not used in unit tests")
}

func newTestRunner(t *testing.T, approver sprintload.Approver) *RunnerService {
	t.Helper()
	return NewRunnerService(noopConnectorFactory, approver, logging.NewNullLogger(), testCatalog(t))
}

func testRunConfig(t *testing.T) sprintload.RunConfig {
	t.Helper()
	return sprintload.RunConfig{
		HPOIDs:            []string{"site_a", "site_b"},
		MultiSchema:       true,
		SprintNum:         5,
		CSVDir:            t.TempDir(),
		ExportPath:        filepath.Join(t.TempDir(), "log.json"),
		DatetimePrecision: sprintload.DefaultDatetimePrecision,
		ConnectionString:  "postgresql://test@localhost:5432/test",
	}
}

func TestNewRunnerService_NilDepsPanic(t *testing.T) {
	cat := testCatalog(t)
	logger := logging.NewNullLogger()
	approver := &stubApprover{approved: true}

	assert.Panics(t, func() { NewRunnerService(nil, approver, logger, cat) })
	assert.Panics(t, func() { NewRunnerService(noopConnectorFactory, nil, logger, cat) })
	assert.Panics(t, func() { NewRunnerService(noopConnectorFactory, approver, nil, cat) })
	assert.Panics(t, func() { NewRunnerService(noopConnectorFactory, approver, logger, nil) })
}

func TestRunWithConnection_InvalidConfig(t *testing.T) {
	r := newTestRunner(t, &stubApprover{approved: true})
	err := r.RunWithConnection(context.Background(), sprintload.RunConfig{}, &dbtest.FakeConn{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, sprintload.ErrInvalidConfig))
}

func TestRunWithConnection_ApprovalDeniedAborts(t *testing.T) {
	conn := &dbtest.FakeConn{}
	conn.QueueRow(false) // schema existence check for site_a

	approver := &stubApprover{approved: false}
	r := newTestRunner(t, approver)

	err := r.RunWithConnection(context.Background(), testRunConfig(t), conn)
	require.Error(t, err)
	assert.True(t, errors.Is(err, sprintload.ErrApprovalDenied))
	assert.Equal(t, []string{"site_a"}, approver.requests, "denial aborts before later sites")
}

func TestRunWithConnection_ApprovalRequestedPerSchema(t *testing.T) {
	conn := &dbtest.FakeConn{}
	conn.QueueRow(false) // site_a schema check
	conn.QueueRow(false) // site_b schema check
	// two ResetTables listings plus two export reads all return empty

	approver := &stubApprover{approved: true}
	r := newTestRunner(t, approver)

	require.NoError(t, r.RunWithConnection(context.Background(), testRunConfig(t), conn))
	assert.Equal(t, []string{"site_a", "site_b"}, approver.requests)

	sqls := conn.ExecSQL()
	var schemas, creates []string
	for _, sql := range sqls {
		if strings.HasPrefix(sql, "CREATE SCHEMA") {
			schemas = append(schemas, sql)
		}
		if strings.HasPrefix(sql, "CREATE TABLE") {
			creates = append(creates, sql)
		}
	}
	assert.Len(t, schemas, 2)
	assert.Len(t, creates, 4, "per site: person plus the log table")
}

func TestRunWithConnection_SharedSchemaSkipsSchemaCreation(t *testing.T) {
	conn := &dbtest.FakeConn{}

	cfg := testRunConfig(t)
	cfg.MultiSchema = false

	approver := &stubApprover{approved: true}
	r := newTestRunner(t, approver)

	require.NoError(t, r.RunWithConnection(context.Background(), cfg, conn))

	for _, sql := range conn.ExecSQL() {
		assert.NotContains(t, sql, "CREATE SCHEMA")
	}
	assert.Equal(t, []string{sprintload.DefaultSchemaName, sprintload.DefaultSchemaName}, approver.requests)
}

func TestRunWithConnection_SiteFailureDoesNotBlockOthers(t *testing.T) {
	conn := &dbtest.FakeConn{}
	conn.QueueRow(false)
	conn.QueueRow(false)
	conn.FailExecContaining(`CREATE SCHEMA "site_a"`, errors.New("permission denied"))

	approver := &stubApprover{approved: true}
	r := newTestRunner(t, approver)

	err := r.RunWithConnection(context.Background(), testRunConfig(t), conn)
	require.Error(t, err)
	assert.True(t, errors.Is(err, sprintload.ErrNamespaceSetup))
	assert.Contains(t, err.Error(), "site site_a")

	// site_b still ran its reset
	var sawSiteB bool
	for _, sql := range conn.ExecSQL() {
		if strings.Contains(sql, `"site_b"`) {
			sawSiteB = true
		}
	}
	assert.True(t, sawSiteB, "a failed site must not stop later sites")
}

func TestRunWithConnection_WritesExport(t *testing.T) {
	conn := &dbtest.FakeConn{}
	conn.QueueRow(false)
	conn.QueueRow(false)

	cfg := testRunConfig(t)
	r := newTestRunner(t, &stubApprover{approved: true})

	require.NoError(t, r.RunWithConnection(context.Background(), cfg, conn))

	assert.FileExists(t, cfg.ExportPath)
}
