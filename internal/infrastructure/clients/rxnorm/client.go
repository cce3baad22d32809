package rxnorm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zojatech/healthmate/backend/internal/domain/entities"
	"github.com/zojatech/healthmate/backend/internal/domain/providers"
	"github.com/zojatech/healthmate/backend/pkg/config"
)

// Client talks to an RxNorm-compatible terminology service. It implements
// both providers.DrugLookupProvider and providers.DrugInteractionProvider.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new RxNorm client.
func NewClient(cfg *config.RxNormConfig) *Client {
	baseURL := "https://rxnav.nlm.nih.gov/REST"
	timeout := 10 * time.Second
	if cfg != nil {
		if cfg.BaseURL != "" {
			baseURL = cfg.BaseURL
		}
		if cfg.Timeout > 0 {
			timeout = cfg.Timeout
		}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type idGroupResponse struct {
	IDGroup struct {
		RxNormID []string `json:"rxnormId"`
	} `json:"idGroup"`
}

type approximateGroupResponse struct {
	ApproximateGroup struct {
		Candidate []struct {
			RxCUI string `json:"rxcui"`
		} `json:"candidate"`
	} `json:"approximateGroup"`
}

// Search resolves a free-text drug name to its canonical concept. An exact
// name match is tried first, then an approximate-term search. A nil concept
// with nil error means the name could not be resolved.
func (c *Client) Search(ctx context.Context, drugName string) (*providers.DrugConcept, error) {
	name := strings.TrimSpace(drugName)
	if name == "" {
		return nil, nil
	}

	raw, err := c.get(ctx, fmt.Sprintf("%s/rxcui.json?name=%s&search=2", c.baseURL, url.QueryEscape(name)))
	if err != nil {
		return nil, err
	}

	var exact idGroupResponse
	if err := json.Unmarshal(raw, &exact); err == nil && len(exact.IDGroup.RxNormID) > 0 {
		return &providers.DrugConcept{
			RxCUI: exact.IDGroup.RxNormID[0],
			Name:  name,
			Raw:   raw,
		}, nil
	}

	raw, err = c.get(ctx, fmt.Sprintf("%s/approximateTerm.json?term=%s&maxEntries=1", c.baseURL, url.QueryEscape(name)))
	if err != nil {
		return nil, err
	}

	var approx approximateGroupResponse
	if err := json.Unmarshal(raw, &approx); err != nil || len(approx.ApproximateGroup.Candidate) == 0 {
		return nil, nil
	}
	rxcui := strings.TrimSpace(approx.ApproximateGroup.Candidate[0].RxCUI)
	if rxcui == "" {
		return nil, nil
	}
	return &providers.DrugConcept{
		RxCUI: rxcui,
		Name:  name,
		Raw:   raw,
	}, nil
}

type interactionListResponse struct {
	FullInteractionTypeGroup []struct {
		FullInteractionType []struct {
			InteractionPair []struct {
				Severity           string `json:"severity"`
				Description        string `json:"description"`
				InteractionConcept []struct {
					MinConceptItem struct {
						Name string `json:"name"`
					} `json:"minConceptItem"`
				} `json:"interactionConcept"`
			} `json:"interactionPair"`
		} `json:"fullInteractionType"`
	} `json:"fullInteractionTypeGroup"`
}

// CheckInteractions runs one batched interaction query over the given
// canonical identifiers. Upstream failures and unparseable bodies read as
// "no interactions found", never as an error the pipeline has to handle.
func (c *Client) CheckInteractions(ctx context.Context, rxcuis []string) ([]entities.DrugInteraction, error) {
	if len(rxcuis) < 2 {
		return []entities.DrugInteraction{}, nil
	}

	endpoint := fmt.Sprintf("%s/interaction/list.json?rxcuis=%s", c.baseURL, url.QueryEscape(strings.Join(rxcuis, " ")))
	raw, err := c.get(ctx, endpoint)
	if err != nil {
		log.Warn().Err(err).Msg("interaction lookup request failed, treating as none found")
		return []entities.DrugInteraction{}, nil
	}

	var envelope interactionListResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		log.Warn().Err(err).Msg("interaction lookup returned non-JSON body, treating as none found")
		return []entities.DrugInteraction{}, nil
	}

	interactions := make([]entities.DrugInteraction, 0)
	for _, group := range envelope.FullInteractionTypeGroup {
		for _, it := range group.FullInteractionType {
			for _, pair := range it.InteractionPair {
				interaction := entities.DrugInteraction{
					Severity:    pair.Severity,
					Description: pair.Description,
				}
				if len(pair.InteractionConcept) > 0 {
					interaction.Drug1 = pair.InteractionConcept[0].MinConceptItem.Name
				}
				if len(pair.InteractionConcept) > 1 {
					interaction.Drug2 = pair.InteractionConcept[1].MinConceptItem.Name
				}
				interactions = append(interactions, interaction)
			}
		}
	}
	return interactions, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("rxnorm request failed with status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
