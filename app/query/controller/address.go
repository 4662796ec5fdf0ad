package controller

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/0lexplorer/explorerx/pkg/provenance"
	"github.com/0lexplorer/explorerx/pkg/registry"
)

// publishTimeout bounds the best-effort Redis publish after a classification.
const publishTimeout = 2 * time.Second

// AddressView is the /address response: the classification plus display-ready values.
type AddressView struct {
	*provenance.Classification
	// BalanceDisplay is the first balance in whole coins, six decimals.
	BalanceDisplay string `json:"balanceDisplay,omitempty"`
}

// ProofsView is the /address/{address}/proofs response.
type ProofsView struct {
	Address      provenance.Address             `json:"address"`
	ProofHistory []provenance.ProofHistoryEntry `json:"proofHistory"`
	Errors       []provenance.PipelineError     `json:"errors,omitempty"`
}

func newAddressView(c *provenance.Classification) AddressView {
	view := AddressView{Classification: c}
	if c.Account != nil && len(c.Account.Balances) > 0 {
		view.BalanceDisplay = strconv.FormatFloat(c.Account.Balance, 'f', 6, 64)
	}
	return view
}

// HandleAddress classifies an address.
//
// Returns 400 for a malformed address and 404 when the node has no such account. Degraded
// results are 200 and carry their errors.
func (c *Controller) HandleAddress(w http.ResponseWriter, r *http.Request) {
	result, ok := c.classify(w, r)
	if !ok {
		return
	}

	c.publish(r.Context(), result)
	writeJSON(w, http.StatusOK, newAddressView(result))
}

// HandleAddressProofs returns only the merged proof history of an address.
func (c *Controller) HandleAddressProofs(w http.ResponseWriter, r *http.Request) {
	result, ok := c.classify(w, r)
	if !ok {
		return
	}

	proofs := result.ProofHistory
	if proofs == nil {
		proofs = []provenance.ProofHistoryEntry{}
	}
	writeJSON(w, http.StatusOK, ProofsView{Address: result.Address, ProofHistory: proofs, Errors: result.Errors})
}

// HandleCommunityWallets lists the registry the classifier matches against.
func (c *Controller) HandleCommunityWallets(w http.ResponseWriter, r *http.Request) {
	wallets := c.App.Wallets.All()
	if wallets == nil {
		wallets = []registry.Wallet{}
	}
	writeJSON(w, http.StatusOK, wallets)
}

// classify parses the address path variable and runs the pipeline. It writes the error response
// itself and returns false when there is nothing to render.
func (c *Controller) classify(w http.ResponseWriter, r *http.Request) (*provenance.Classification, bool) {
	raw := mux.Vars(r)["address"]
	address, err := provenance.ParseAddress(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid address: "+err.Error())
		return nil, false
	}

	result := c.App.Pipeline.Classify(r.Context(), address)
	if !result.AccountFound && !result.HasError(provenance.StageAccount) {
		writeError(w, http.StatusNotFound, "account not found")
		return nil, false
	}
	return result, true
}

func (c *Controller) publish(ctx context.Context, result *provenance.Classification) {
	if c.App.RedisClient == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err := c.App.RedisClient.PublishClassified(ctx, result.Address.String(), newAddressView(result))
	c.App.Metrics.ObservePublish(err == nil)
	if err != nil {
		c.App.Logger.Debug("Classification event not published",
			zap.String("address", result.Address.String()), zap.Error(err))
	}
}
