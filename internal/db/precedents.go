package db

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"
	"github.com/veritylabs/fosight/internal/models"
)

// SearchPrecedents finds the top-K most similar precedents for an embedding,
// narrowed server-side by the coarse filters. When the filtered search comes
// back empty the query degrades to pure vector similarity; only a store
// failure is an error.
func (c *Client) SearchPrecedents(ctx context.Context, embedding []float32, filters models.CaseFilters, k int) ([]models.PrecedentMatch, error) {
	if k <= 0 {
		k = 5
	}

	matches, err := c.searchPrecedents(ctx, embedding, &filters, k)
	if err != nil {
		return nil, err
	}
	if len(matches) > 0 {
		return matches, nil
	}

	// No precedent carries these filters; fall back to similarity alone.
	return c.searchPrecedents(ctx, embedding, nil, k)
}

func (c *Client) searchPrecedents(ctx context.Context, embedding []float32, filters *models.CaseFilters, k int) ([]models.PrecedentMatch, error) {
	filterClause := ""
	vars := map[string]any{
		"emb": embedding,
	}
	if filters != nil && (filters.ProductType != "" || len(filters.KeyThemes) > 0) {
		filterClause = "AND (product_type = $product OR key_themes CONTAINSANY $themes)"
		vars["product"] = filters.ProductType
		vars["themes"] = filters.KeyThemes
	}

	// HNSW with ef=40 for better recall; cosine similarity as the score.
	sql := fmt.Sprintf(`
		SELECT case_id, full_text, fos_outcome,
			vector::similarity::cosine(embedding, $emb) AS similarity
		FROM precedent
		WHERE embedding <|%d,40|> $emb %s
		ORDER BY similarity DESC
	`, k, filterClause)

	results, err := surrealdb.Query[[]models.PrecedentMatch](ctx, c.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("search precedents: %w", wrapQueryError(err))
	}

	if results != nil && len(*results) > 0 {
		return (*results)[0].Result, nil
	}
	return []models.PrecedentMatch{}, nil
}

// UpsertPrecedent inserts or replaces a precedent keyed by case_id.
// Used by the offline corpus ingestion utility.
func (c *Client) UpsertPrecedent(ctx context.Context, p models.Precedent) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPSERT type::record("precedent", $id) SET
			case_id = $case_id,
			firm_name = $firm_name,
			product_type = $product_type,
			key_themes = $key_themes,
			fos_outcome = $fos_outcome,
			full_text = $full_text,
			compensation_awarded = $compensation,
			redress_amount = $redress,
			embedding = $embedding
	`, map[string]any{
		"id":           p.CaseID,
		"case_id":      p.CaseID,
		"firm_name":    p.FirmName,
		"product_type": p.ProductType,
		"key_themes":   p.KeyThemes,
		"fos_outcome":  p.FOSOutcome,
		"full_text":    p.FullText,
		"compensation": p.CompensationAwarded,
		"redress":      p.RedressAmount,
		"embedding":    p.Embedding,
	})
	if err != nil {
		return fmt.Errorf("upsert precedent: %w", wrapQueryError(err))
	}
	return nil
}

// CountPrecedents returns the total number of precedents in the corpus.
func (c *Client) CountPrecedents(ctx context.Context) (int, error) {
	results, err := surrealdb.Query[[]statusCount](ctx, c.db, `
		SELECT count() AS count FROM precedent GROUP ALL
	`, nil)
	if err != nil {
		return 0, fmt.Errorf("count precedents: %w", wrapQueryError(err))
	}

	if results != nil && len(*results) > 0 && len((*results)[0].Result) > 0 {
		return (*results)[0].Result[0].Count, nil
	}
	return 0, nil
}
