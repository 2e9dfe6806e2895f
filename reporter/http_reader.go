// Reader is the client side of the http reporter, used by tests and bridgectl.

package reporter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/TEENet-io/erc20-bridge-go/relayer"
)

type HttpReader struct {
	serverIP   string // listen ip
	serverPort string // listen port
	client     *http.Client
}

func NewHttpReader(serverIP string, serverPort string) *HttpReader {
	return &HttpReader{
		serverIP:   serverIP,
		serverPort: serverPort,
		client:     http.DefaultClient,
	}
}

func (hr *HttpReader) url(path string, query url.Values) string {
	u := "http://" + hr.serverIP + ":" + hr.serverPort + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func bridgePath(chainID *big.Int, route string) string {
	return "/bridges/" + chainID.String() + route
}

// do sends the request and decodes a 200 response into out.
func (hr *HttpReader) do(req *http.Request, out interface{}) error {
	resp, err := hr.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		var e errorResponse
		msg := string(body)
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %s", ErrNotFound, msg)
		}
		return ErrUnexpectedStatus(resp.StatusCode, msg)
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

func (hr *HttpReader) get(path string, query url.Values, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, hr.url(path, query), nil)
	if err != nil {
		return err
	}
	return hr.do(req, out)
}

func (hr *HttpReader) post(path string, in, out interface{}) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, hr.url(path, nil), bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return hr.do(req, out)
}

func (hr *HttpReader) Health() error {
	return hr.get(ROUTE_HEALTH, nil, nil)
}

func (hr *HttpReader) GetBridges() ([]*BridgeInfo, error) {
	var res struct {
		Data []*BridgeInfo `json:"data"`
	}
	if err := hr.get(ROUTE_BRIDGES, nil, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

func (hr *HttpReader) GetWrapped(chainID *big.Int, nativeToken ethcommon.Address, nativeChainID *big.Int) (ethcommon.Address, error) {
	var res struct {
		WrappedToken ethcommon.Address `json:"wrapped_token"`
	}
	query := url.Values{
		"native_token":    {nativeToken.Hex()},
		"native_chain_id": {nativeChainID.String()},
	}
	if err := hr.get(bridgePath(chainID, ROUTE_WRAPPED), query, &res); err != nil {
		return ethcommon.Address{}, err
	}
	return res.WrappedToken, nil
}

func (hr *HttpReader) GetNative(chainID *big.Int, wrappedToken ethcommon.Address) (ethcommon.Address, *big.Int, error) {
	var res struct {
		NativeToken   ethcommon.Address `json:"native_token"`
		NativeChainID string            `json:"native_chain_id"`
	}
	query := url.Values{"wrapped_token": {wrappedToken.Hex()}}
	if err := hr.get(bridgePath(chainID, ROUTE_NATIVE), query, &res); err != nil {
		return ethcommon.Address{}, nil, err
	}
	nativeChainID, ok := new(big.Int).SetString(res.NativeChainID, 10)
	if !ok {
		return ethcommon.Address{}, nil, ErrInvalidParam("native_chain_id", res.NativeChainID)
	}
	return res.NativeToken, nativeChainID, nil
}

func (hr *HttpReader) IsClaimProcessed(chainID *big.Int, digest ethcommon.Hash) (bool, error) {
	var res struct {
		Processed bool `json:"processed"`
	}
	query := url.Values{"digest": {digest.Hex()}}
	if err := hr.get(bridgePath(chainID, ROUTE_CLAIMS_PROCESSED), query, &res); err != nil {
		return false, err
	}
	return res.Processed, nil
}

func (hr *HttpReader) IsChainSupported(chainID, queried *big.Int) (bool, error) {
	var res struct {
		Supported bool `json:"supported"`
	}
	query := url.Values{"chain_id": {queried.String()}}
	if err := hr.get(bridgePath(chainID, ROUTE_CHAINS_SUPPORTED), query, &res); err != nil {
		return false, err
	}
	return res.Supported, nil
}

func (hr *HttpReader) GetMintClaimHash(chainID *big.Int, req *MintClaimHashRequest) (ethcommon.Hash, error) {
	var res digestResponse
	if err := hr.post(bridgePath(chainID, ROUTE_MINT_CLAIM_HASH), req, &res); err != nil {
		return ethcommon.Hash{}, err
	}
	return res.Digest, nil
}

func (hr *HttpReader) GetUnlockClaimHash(chainID *big.Int, req *UnlockClaimHashRequest) (ethcommon.Hash, error) {
	var res digestResponse
	if err := hr.post(bridgePath(chainID, ROUTE_UNLOCK_CLAIM_HASH), req, &res); err != nil {
		return ethcommon.Hash{}, err
	}
	return res.Digest, nil
}

// GetVouchers returns an empty list when the recipient has no voucher.
func (hr *HttpReader) GetVouchers(recipient ethcommon.Address) ([]*relayer.Voucher, error) {
	var res struct {
		Data []*relayer.Voucher `json:"data"`
	}
	err := hr.get(ROUTE_VOUCHERS, url.Values{"recipient": {recipient.Hex()}}, &res)
	if errors.Is(err, ErrNotFound) {
		return []*relayer.Voucher{}, nil
	}
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}
