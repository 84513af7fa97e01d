// 自由入力の機種名を name_collection (正規化済みカタログ索引) に
// 突き合わせる解決カスケードです。段階は厳密に順序付き・短絡評価で、
// 最初に当たった段階の結果を返します。
package matcher

import (
	"context"
	"log"
	"sync"

	"kishu/model"
	"kishu/normalizer"
)

// Catalog はカタログ照合の読み取り口です。database パッケージが実装します。
type Catalog interface {
	// FindByNormalized は正規化済みパターンとカタログ側正規化名の
	// 双方向部分一致で最良の1件を返します。該当なしは (nil, nil)。
	FindByNormalized(pattern string) (*model.NameCollectionEntry, error)
	// ListNormalized は編集距離照合用に全行のスナップショットを返します。
	ListNormalized() ([]model.NameCollectionEntry, error)
}

// ExternalMatcher は外部照合サービスです。設定されている場合、
// 3段目のあいまい照合をローカルの編集距離計算に代えて委譲します。
type ExternalMatcher interface {
	Search(ctx context.Context, name string) (*model.MatchCandidate, error)
}

type Resolver struct {
	catalog     Catalog
	external    ExternalMatcher // nil ならローカル編集距離
	maxDistance int
}

func NewResolver(catalog Catalog, external ExternalMatcher, maxDistance int) *Resolver {
	if maxDistance <= 0 {
		maxDistance = model.MaxEditDistanceDef
	}
	return &Resolver{catalog: catalog, external: external, maxDistance: maxDistance}
}

// Resolve は1機種名を解決します。照合層のエラーはバッチを
// 止めず、ログに残した上でステージ4 (手動解決) に落とします。
func (r *Resolver) Resolve(ctx context.Context, rawName string) model.MatchCandidate {
	run := &batchRun{resolver: r}
	return run.resolve(ctx, rawName)
}

// ResolveAll はバッチ内の全項目を並行に解決します。各項目は独立で、
// 結果は入力順のまま返ります。
func (r *Resolver) ResolveAll(ctx context.Context, items []model.MachineSubmissionItem) []model.ResolvedMachine {
	run := &batchRun{resolver: r}
	resolved := make([]model.ResolvedMachine, len(items))

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(i int, item model.MachineSubmissionItem) {
			defer wg.Done()
			resolved[i] = model.ResolvedMachine{
				RawName:   item.RawName,
				Quantity:  item.Quantity,
				Candidate: run.resolve(ctx, item.RawName),
			}
		}(i, item)
	}
	wg.Wait()
	return resolved
}

// batchRun は1バッチ分の解決実行です。編集距離用の全行スナップショットを
// バッチ内で1回だけロードして共有します (ロード後は読み取り専用)。
type batchRun struct {
	resolver *Resolver
	loadOnce sync.Once
	entries  []model.NameCollectionEntry
	loadErr  error
}

func (b *batchRun) resolve(ctx context.Context, rawName string) model.MatchCandidate {
	r := b.resolver
	stage1 := normalizer.NormalizeStage1(rawName)
	stage2 := normalizer.NormalizeStage2(rawName)

	// ステージ1: 基本正規化での部分一致
	if stage1 != "" {
		entry, err := r.catalog.FindByNormalized(stage1)
		if err != nil {
			log.Printf("WARN: stage1 lookup failed for %q: %v", rawName, err)
			return noMatch()
		}
		if entry != nil {
			return candidateFrom(entry, model.MatchStageBasic, 0)
		}
	}

	// 正規化で空になった名前は照合不能。空パターンを投げない。
	if stage2 == "" {
		return noMatch()
	}

	// ステージ2: ジャンル語除去後の部分一致
	entry, err := r.catalog.FindByNormalized(stage2)
	if err != nil {
		log.Printf("WARN: stage2 lookup failed for %q: %v", rawName, err)
		return noMatch()
	}
	if entry != nil {
		return candidateFrom(entry, model.MatchStageGenre, 0)
	}

	// ステージ3: あいまい照合 (外部サービス or ローカル編集距離)
	if r.external != nil {
		return b.resolveExternal(ctx, rawName, stage2)
	}
	return b.resolveByDistance(rawName, stage2)
}

func (b *batchRun) resolveExternal(ctx context.Context, rawName, pattern string) model.MatchCandidate {
	cand, err := b.resolver.external.Search(ctx, pattern)
	if err != nil {
		log.Printf("WARN: external matcher failed for %q: %v", rawName, err)
		return noMatch()
	}
	// サービス側の「該当なし」はそのままステージ4として扱う。
	// 誤った機種に倒してはいけない。
	if cand == nil || cand.MatchStage != model.MatchStageFuzzy {
		return noMatch()
	}
	return *cand
}

func (b *batchRun) resolveByDistance(rawName, pattern string) model.MatchCandidate {
	b.loadOnce.Do(func() {
		b.entries, b.loadErr = b.resolver.catalog.ListNormalized()
	})
	if b.loadErr != nil {
		log.Printf("WARN: stage3 catalog snapshot failed for %q: %v", rawName, b.loadErr)
		return noMatch()
	}

	best := -1
	bestDist := 0
	for i := range b.entries {
		d := Distance(pattern, b.entries[i].NormalizedName)
		if d > b.resolver.maxDistance {
			continue
		}
		// 距離昇順、同距離なら修飾子抜き名称の短い方を採る
		if best < 0 || d < bestDist ||
			(d == bestDist && b.entries[i].StrippedLength < b.entries[best].StrippedLength) {
			best = i
			bestDist = d
		}
	}
	if best < 0 {
		return noMatch()
	}
	return candidateFrom(&b.entries[best], model.MatchStageFuzzy, bestDist)
}

func candidateFrom(entry *model.NameCollectionEntry, stage, distance int) model.MatchCandidate {
	return model.MatchCandidate{
		NameCollectionID: entry.ID,
		CanonicalName:    entry.DotcomMachineName,
		SisCode:          entry.SisCode,
		MatchStage:       stage,
		EditDistance:     distance,
	}
}

func noMatch() model.MatchCandidate {
	return model.MatchCandidate{MatchStage: model.MatchStageNoMatch}
}
