package matcher

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kishu/model"
	"kishu/normalizer"
)

// mockCatalog は呼び出し回数を記録するインメモリカタログです。
// 照合順位は本物のクエリと同じ: 完全一致 > 修飾子抜き名称の短い順。
type mockCatalog struct {
	entries   []model.NameCollectionEntry
	findCalls []string
	listCalls int
	findErr   error
	listErr   error
}

func (m *mockCatalog) FindByNormalized(pattern string) (*model.NameCollectionEntry, error) {
	m.findCalls = append(m.findCalls, pattern)
	if m.findErr != nil {
		return nil, m.findErr
	}
	var best *model.NameCollectionEntry
	better := func(e, cur *model.NameCollectionEntry) bool {
		if cur == nil {
			return true
		}
		if (e.NormalizedName == pattern) != (cur.NormalizedName == pattern) {
			return e.NormalizedName == pattern
		}
		return e.StrippedLength < cur.StrippedLength
	}
	for i := range m.entries {
		e := &m.entries[i]
		if e.NormalizedName == "" {
			continue
		}
		if strings.Contains(pattern, e.NormalizedName) || strings.Contains(e.NormalizedName, pattern) {
			if better(e, best) {
				best = e
			}
		}
	}
	return best, nil
}

func (m *mockCatalog) ListNormalized() ([]model.NameCollectionEntry, error) {
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.entries, nil
}

func entry(id int64, name, sisCode string) model.NameCollectionEntry {
	return model.NameCollectionEntry{
		ID:                id,
		DotcomMachineName: name,
		SisCode:           sisCode,
		NormalizedName:    normalizer.NormalizeStage1(name),
		StrippedLength:    normalizer.StrippedLength(name),
	}
}

func TestResolveStage1ShortCircuits(t *testing.T) {
	cat := &mockCatalog{entries: []model.NameCollectionEntry{entry(1, "花火", "S001")}}
	r := NewResolver(cat, nil, 5)

	got := r.Resolve(context.Background(), "ＣＲぱちんこ花火")

	assert.Equal(t, model.MatchStageBasic, got.MatchStage)
	assert.Equal(t, int64(1), got.NameCollectionID)
	assert.Equal(t, "S001", got.SisCode)
	// ステージ1で当たったらステージ2の照会もステージ3のスナップショットも走らない
	require.Len(t, cat.findCalls, 1)
	assert.Equal(t, "CRぱちんこ花火", cat.findCalls[0])
	assert.Equal(t, 0, cat.listCalls)
}

func TestResolveStage2AfterGenrePrefix(t *testing.T) {
	cat := &mockCatalog{entries: []model.NameCollectionEntry{
		entry(2, "バイオハザード７", "S002"),
	}}
	r := NewResolver(cat, nil, 5)

	got := r.Resolve(context.Background(), "スロットバイオハザード")

	assert.Equal(t, model.MatchStageGenre, got.MatchStage)
	assert.Equal(t, int64(2), got.NameCollectionID)
	require.Len(t, cat.findCalls, 2)
	assert.Equal(t, "スロットバイオハザード", cat.findCalls[0])
	assert.Equal(t, "バイオハザード", cat.findCalls[1])
}

func TestResolveStage1PrefersShortestStrippedName(t *testing.T) {
	cat := &mockCatalog{entries: []model.NameCollectionEntry{
		entry(10, "ＣＲ花火【甘デジ】", "S010"),
		entry(11, "花火", "S011"),
	}}
	r := NewResolver(cat, nil, 5)

	got := r.Resolve(context.Background(), "ＣＲ花火")

	// 修飾子付きのバリアントより基準機種を優先
	assert.Equal(t, int64(11), got.NameCollectionID)
}

func TestResolveStage1PrefersExactMatch(t *testing.T) {
	cat := &mockCatalog{entries: []model.NameCollectionEntry{
		entry(12, "花火", "S012"),
		entry(13, "花火絶景", "S013"),
	}}
	r := NewResolver(cat, nil, 5)

	got := r.Resolve(context.Background(), "花火絶景")

	assert.Equal(t, int64(13), got.NameCollectionID)
}

func TestResolveStage3EditDistance(t *testing.T) {
	cat := &mockCatalog{entries: []model.NameCollectionEntry{
		entry(3, "北斗の拳宿命", "S003"),
	}}
	r := NewResolver(cat, nil, 5)

	// 「拳」→「剣」のタイプミス。部分一致では拾えない。
	got := r.Resolve(context.Background(), "北斗の剣宿命")

	assert.Equal(t, model.MatchStageFuzzy, got.MatchStage)
	assert.Equal(t, 1, got.EditDistance)
	assert.Equal(t, int64(3), got.NameCollectionID)
}

func TestResolveStage3NeverExceedsMaxDistance(t *testing.T) {
	cat := &mockCatalog{entries: []model.NameCollectionEntry{
		entry(4, "まったく別の機種名", "S004"),
	}}
	r := NewResolver(cat, nil, 5)

	got := r.Resolve(context.Background(), "XYZ999-UnknownMachine")

	assert.Equal(t, model.MatchStageNoMatch, got.MatchStage)
	assert.Zero(t, got.NameCollectionID)
	assert.Empty(t, got.SisCode)
}

func TestResolveStage3TieBreak(t *testing.T) {
	cat := &mockCatalog{entries: []model.NameCollectionEntry{
		entry(20, "はなびび１", "S020"),
		entry(21, "はなび２", "S021"),
	}}
	r := NewResolver(cat, nil, 5)

	got := r.Resolve(context.Background(), "はなび１")

	// どちらも距離1。名称の短い方 (はなび２) が勝つ。
	assert.Equal(t, model.MatchStageFuzzy, got.MatchStage)
	assert.Equal(t, 1, got.EditDistance)
	assert.Equal(t, int64(21), got.NameCollectionID)
}

func TestResolveEmptyNormalizedNameSkipsLookups(t *testing.T) {
	cat := &mockCatalog{}
	r := NewResolver(cat, nil, 5)

	got := r.Resolve(context.Background(), "- 【】 ~")

	assert.Equal(t, model.MatchStageNoMatch, got.MatchStage)
	assert.Empty(t, cat.findCalls)
	assert.Equal(t, 0, cat.listCalls)
}

func TestResolveLookupErrorDegradesToStage4(t *testing.T) {
	cat := &mockCatalog{findErr: errors.New("connection refused")}
	r := NewResolver(cat, nil, 5)

	got := r.Resolve(context.Background(), "ＣＲ花火")

	assert.Equal(t, model.MatchStageNoMatch, got.MatchStage)
}

func TestResolveSnapshotErrorDegradesToStage4(t *testing.T) {
	cat := &mockCatalog{listErr: errors.New("database is locked")}
	r := NewResolver(cat, nil, 5)

	got := r.Resolve(context.Background(), "知らない機種")

	assert.Equal(t, model.MatchStageNoMatch, got.MatchStage)
	assert.Equal(t, 1, cat.listCalls)
}

type stubExternal struct {
	calls  int
	result *model.MatchCandidate
	err    error
}

func (s *stubExternal) Search(ctx context.Context, name string) (*model.MatchCandidate, error) {
	s.calls++
	return s.result, s.err
}

func TestResolveExternalMatcherHit(t *testing.T) {
	cat := &mockCatalog{}
	ext := &stubExternal{result: &model.MatchCandidate{
		NameCollectionID: 5, SisCode: "S005", CanonicalName: "花の慶次", MatchStage: model.MatchStageFuzzy,
	}}
	r := NewResolver(cat, ext, 5)

	got := r.Resolve(context.Background(), "花の慶治")

	assert.Equal(t, model.MatchStageFuzzy, got.MatchStage)
	assert.Equal(t, "S005", got.SisCode)
	assert.Equal(t, 1, ext.calls)
	// 外部サービスに委譲した場合、ローカルのスナップショットは取らない
	assert.Equal(t, 0, cat.listCalls)
}

func TestResolveExternalNoMatchIsStage4(t *testing.T) {
	cat := &mockCatalog{}
	ext := &stubExternal{result: &model.MatchCandidate{MatchStage: model.MatchStageNoMatch}}
	r := NewResolver(cat, ext, 5)

	got := r.Resolve(context.Background(), "知らない機種")

	assert.Equal(t, model.MatchStageNoMatch, got.MatchStage)
	assert.Zero(t, got.NameCollectionID)
}

func TestResolveExternalErrorDegradesToStage4(t *testing.T) {
	cat := &mockCatalog{}
	ext := &stubExternal{err: errors.New("timeout")}
	r := NewResolver(cat, ext, 5)

	got := r.Resolve(context.Background(), "知らない機種")

	assert.Equal(t, model.MatchStageNoMatch, got.MatchStage)
}

func TestResolveAllKeepsOrderAndSharesSnapshot(t *testing.T) {
	cat := &mockCatalog{entries: []model.NameCollectionEntry{
		entry(1, "花火", "S001"),
		entry(2, "北斗の拳宿命", "S002"),
	}}
	r := NewResolver(cat, nil, 5)

	items := []model.MachineSubmissionItem{
		{RawName: "ＣＲ花火", Quantity: 10},
		{RawName: "XYZ999-UnknownMachine", Quantity: 5},
		{RawName: "北斗の剣宿命", Quantity: 3},
	}
	resolved := r.ResolveAll(context.Background(), items)

	require.Len(t, resolved, 3)
	assert.Equal(t, "ＣＲ花火", resolved[0].RawName)
	assert.Equal(t, model.MatchStageBasic, resolved[0].Candidate.MatchStage)
	assert.Equal(t, 10, resolved[0].Quantity)
	assert.Equal(t, model.MatchStageNoMatch, resolved[1].Candidate.MatchStage)
	assert.Equal(t, model.MatchStageFuzzy, resolved[2].Candidate.MatchStage)
	// 編集距離用スナップショットはバッチ内で1回だけ
	assert.Equal(t, 1, cat.listCalls)
}

func TestDistance(t *testing.T) {
	assert.Equal(t, 0, Distance("花火", "花火"))
	assert.Equal(t, 1, Distance("花火", "花氷"))
	assert.Equal(t, 2, Distance("かき", "かきくけ"))
	assert.Equal(t, 3, Distance("", "abc"))
	assert.Equal(t, 4, Distance("あいうえ", ""))
}
