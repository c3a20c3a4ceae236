package llm

import (
	"context"
	"fmt"
	"strings"

	"garden_buddy/internal/garden"
	"garden_buddy/internal/knowledge"
	"garden_buddy/internal/logger"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
)

// maxToolSteps bounds how many rounds of tool calls one reply may use
const maxToolSteps = 3

type plantQuery struct {
	Name string `json:"name" jsonschema:"description=Plant name such as tomato or basil"`
}

type knowledgeQuery struct {
	Query string `json:"query" jsonschema:"description=What to look up in the gardening knowledge base"`
}

// PlantInfoTool looks plants up in the catalog
func PlantInfoTool(catalog *garden.Catalog) (tool.InvokableTool, error) {
	return utils.InferTool("plant_info", "Look up sun, water and harvest facts for a plant",
		func(ctx context.Context, q plantQuery) (string, error) {
			logger.Debug().Str("plant", q.Name).Msg("Tool plant_info called")

			info, ok := catalog.Lookup(garden.NormalizePlantName(strings.TrimSpace(q.Name)))
			if !ok {
				return fmt.Sprintf("No catalog entry for %q.", q.Name), nil
			}
			return fmt.Sprintf("%s %s (%s)\n- sun: %s\n- water: %s\n- days to harvest: %d",
				info.Emoji, info.Name, info.Type, info.Sun, info.Water, info.DaysToHarvest), nil
		})
}

// KnowledgeSearchTool searches the shared knowledge base
func KnowledgeSearchTool(store *knowledge.Store, maxResults int) (tool.InvokableTool, error) {
	return utils.InferTool("knowledge_search", "Search the gardening knowledge base for advice",
		func(ctx context.Context, q knowledgeQuery) (string, error) {
			logger.Debug().Str("query", q.Query).Msg("Tool knowledge_search called")

			var answers []string
			for _, hit := range store.Search(q.Query, maxResults) {
				if a := knowledge.FormatAnswer(hit); a != "" {
					answers = append(answers, a)
				}
			}
			if len(answers) == 0 {
				return fmt.Sprintf("Nothing in the knowledge base about %q.", q.Query), nil
			}
			return strings.Join(answers, "\n\n---\n\n"), nil
		})
}

// GardenTools returns the tools offered to models that support tool calling
func GardenTools(catalog *garden.Catalog, baseline *knowledge.Baseline) ([]tool.InvokableTool, error) {
	plant, err := PlantInfoTool(catalog)
	if err != nil {
		return nil, fmt.Errorf("error creating plant_info tool: %w", err)
	}
	search, err := KnowledgeSearchTool(knowledge.NewStore(baseline, nil, 0), 3)
	if err != nil {
		return nil, fmt.Errorf("error creating knowledge_search tool: %w", err)
	}
	return []tool.InvokableTool{plant, search}, nil
}
