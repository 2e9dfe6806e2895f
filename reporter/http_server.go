// This is a http type of reporter.
// It reads the state of the bridges and the relayer vouchers
// and publishes them on the http routes.

package reporter

import (
	"math/big"
	"net/http"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"

	"github.com/TEENet-io/erc20-bridge-go/bridge"
	"github.com/TEENet-io/erc20-bridge-go/common"
	"github.com/TEENet-io/erc20-bridge-go/relayer"
)

const (
	ROUTE_HEALTH            = "/health"
	ROUTE_BRIDGES           = "/bridges"
	ROUTE_BRIDGE            = "/bridges/:chain"
	ROUTE_WRAPPED           = "/wrapped"
	ROUTE_NATIVE            = "/native"
	ROUTE_CLAIMS_PROCESSED  = "/claims/processed"
	ROUTE_CHAINS_SUPPORTED  = "/chains/supported"
	ROUTE_MINT_CLAIM_HASH   = "/claims/mint/hash"
	ROUTE_UNLOCK_CLAIM_HASH = "/claims/unlock/hash"
	ROUTE_EVENTS            = "/events"
	ROUTE_VOUCHERS          = "/vouchers"
)

// VoucherStore is the read side of the relayer voucher database.
type VoucherStore interface {
	GetVouchersByRecipient(recipient ethcommon.Address) ([]*relayer.Voucher, error)
}

type HttpReporter struct {
	serverIP   string // listen ip
	serverPort string // listen port

	// upstream data sources, bridges keyed by decimal chain id
	bridges  map[string]*bridge.Bridge
	vouchers VoucherStore
}

func NewHttpReporter(serverIP string, serverPort string, vouchers VoucherStore, bridges ...*bridge.Bridge) *HttpReporter {
	m := make(map[string]*bridge.Bridge, len(bridges))
	for _, b := range bridges {
		m[b.ChainID().String()] = b
	}
	return &HttpReporter{
		serverIP:   serverIP,
		serverPort: serverPort,
		bridges:    m,
		vouchers:   vouchers,
	}
}

// Hook up routes & handlers
func (h *HttpReporter) SetupRouter() *gin.Engine {
	router := gin.Default()

	router.GET(ROUTE_HEALTH, Health)
	router.GET(ROUTE_BRIDGES, h.Bridges)
	router.GET(ROUTE_VOUCHERS, h.Vouchers)

	g := router.Group(ROUTE_BRIDGE, h.withBridge)
	g.GET("", h.BridgeInfo)
	g.GET(ROUTE_WRAPPED, h.Wrapped)
	g.GET(ROUTE_NATIVE, h.Native)
	g.GET(ROUTE_CLAIMS_PROCESSED, h.ClaimProcessed)
	g.GET(ROUTE_CHAINS_SUPPORTED, h.ChainSupported)
	g.GET(ROUTE_EVENTS, h.Events)
	g.POST(ROUTE_MINT_CLAIM_HASH, h.MintClaimHash)
	g.POST(ROUTE_UNLOCK_CLAIM_HASH, h.UnlockClaimHash)

	return router
}

// Hook up router & ip:port
func (h *HttpReporter) Run() {
	router := h.SetupRouter()
	address := h.serverIP + ":" + h.serverPort
	if err := router.Run(address); err != nil {
		panic(err)
	}
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HttpReporter) Bridges(c *gin.Context) {
	infos := []*BridgeInfo{}
	for _, b := range h.bridges {
		info, err := bridgeInfo(b)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		infos = append(infos, info)
	}
	c.JSON(http.StatusOK, gin.H{"data": infos})
}

// withBridge resolves the :chain path parameter.
func (h *HttpReporter) withBridge(c *gin.Context) {
	b, ok := h.bridges[c.Param("chain")]
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": bridge.ErrUnsupportedChain.Error()})
		return
	}
	c.Set("bridge", b)
	c.Next()
}

func getBridge(c *gin.Context) *bridge.Bridge {
	return c.MustGet("bridge").(*bridge.Bridge)
}

func (h *HttpReporter) BridgeInfo(c *gin.Context) {
	info, err := bridgeInfo(getBridge(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": info})
}

func (h *HttpReporter) Wrapped(c *gin.Context) {
	nativeToken, ok := parseAddress(c, "native_token", c.Query("native_token"))
	if !ok {
		return
	}
	nativeChainID, ok := parseBig(c, "native_chain_id", c.Query("native_chain_id"))
	if !ok {
		return
	}

	wrapped, err := getBridge(c).GetWTokenAddress(nativeToken, nativeChainID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"wrapped_token": wrapped})
}

func (h *HttpReporter) Native(c *gin.Context) {
	wrapped, ok := parseAddress(c, "wrapped_token", c.Query("wrapped_token"))
	if !ok {
		return
	}

	nativeToken, nativeChainID, err := getBridge(c).GetNativeTokenAddress(wrapped)
	if err == bridge.ErrNotWrappedToken {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"native_token":    nativeToken,
		"native_chain_id": nativeChainID.String(),
	})
}

func (h *HttpReporter) ClaimProcessed(c *gin.Context) {
	digest, ok := parseHash(c, "digest", c.Query("digest"))
	if !ok {
		return
	}

	claim, processed, err := getBridge(c).GetProcessedClaim(digest)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !processed {
		c.JSON(http.StatusOK, gin.H{"processed": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"processed": true,
		"kind":      claim.Kind,
		"tx_ref":    claim.TxRef,
		"claimant":  claim.Claimant,
		"token":     claim.Token,
		"amount":    claim.Amount.String(),
	})
}

func (h *HttpReporter) ChainSupported(c *gin.Context) {
	chainID, ok := parseBig(c, "chain_id", c.Query("chain_id"))
	if !ok {
		return
	}

	supported, err := getBridge(c).IsChainSupported(chainID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"supported": supported})
}

func (h *HttpReporter) Events(c *gin.Context) {
	var q EventsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	evs, err := getBridge(c).EventsSince(q.Since, q.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": evs})
}

func (h *HttpReporter) MintClaimHash(c *gin.Context) {
	var req MintClaimHashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recipient, ok := parseAddress(c, "recipient", req.Recipient)
	if !ok {
		return
	}
	amount, ok := parseBig(c, "amount", req.Amount)
	if !ok {
		return
	}
	nativeToken, ok := parseAddress(c, "native_token", req.NativeToken)
	if !ok {
		return
	}
	nativeChainID, ok := parseBig(c, "native_chain_id", req.NativeChainID)
	if !ok {
		return
	}
	txRef, ok := parseHash(c, "tx_ref", req.TxRef)
	if !ok {
		return
	}

	digest := getBridge(c).GetMintClaimHash(recipient, amount, nativeToken, nativeChainID, req.Name, req.Symbol, txRef)
	c.JSON(http.StatusOK, gin.H{"digest": digest})
}

func (h *HttpReporter) UnlockClaimHash(c *gin.Context) {
	var req UnlockClaimHashRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recipient, ok := parseAddress(c, "recipient", req.Recipient)
	if !ok {
		return
	}
	amount, ok := parseBig(c, "amount", req.Amount)
	if !ok {
		return
	}
	nativeToken, ok := parseAddress(c, "native_token", req.NativeToken)
	if !ok {
		return
	}
	txRef, ok := parseHash(c, "tx_ref", req.TxRef)
	if !ok {
		return
	}

	digest := getBridge(c).GetUnlockClaimHash(recipient, amount, nativeToken, txRef)
	c.JSON(http.StatusOK, gin.H{"digest": digest})
}

// Fetch vouchers of a recipient from the relayer db.
func (h *HttpReporter) Vouchers(c *gin.Context) {
	recipient, ok := parseAddress(c, "recipient", c.Query("recipient"))
	if !ok {
		return
	}

	vouchers, err := h.vouchers.GetVouchersByRecipient(recipient)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if len(vouchers) > 0 {
		c.JSON(http.StatusOK, gin.H{"data": vouchers})
	} else {
		c.JSON(http.StatusNotFound, gin.H{"error": "No voucher found"})
	}
}

func bridgeInfo(b *bridge.Bridge) (*BridgeInfo, error) {
	owner, err := b.Owner()
	if err != nil {
		return nil, err
	}
	scheme, key, err := b.ValidatorPublicKey()
	if err != nil {
		return nil, err
	}
	chains, err := b.SupportedChains()
	if err != nil {
		return nil, err
	}

	supported := make([]string, 0, len(chains))
	for _, id := range chains {
		supported = append(supported, id.String())
	}
	return &BridgeInfo{
		Address:         b.Address(),
		ChainID:         b.ChainID().String(),
		Owner:           owner,
		Scheme:          scheme,
		ValidatorKey:    key,
		SupportedChains: supported,
	}, nil
}

func parseAddress(c *gin.Context, field, s string) (ethcommon.Address, bool) {
	if !ethcommon.IsHexAddress(s) {
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrInvalidParam(field, s).Error()})
		return ethcommon.Address{}, false
	}
	return ethcommon.HexToAddress(s), true
}

// parseBig accepts decimal numbers only.
func parseBig(c *gin.Context, field, s string) (*big.Int, bool) {
	v := common.DecStrToBigInt(s)
	if !common.IsUint256(v) {
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrInvalidParam(field, s).Error()})
		return nil, false
	}
	return v, true
}

func parseHash(c *gin.Context, field, s string) (ethcommon.Hash, bool) {
	b, err := hexutil.Decode(common.Prepend0xPrefix(s))
	if err != nil || len(b) != ethcommon.HashLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": ErrInvalidParam(field, s).Error()})
		return ethcommon.Hash{}, false
	}
	return ethcommon.BytesToHash(b), true
}
