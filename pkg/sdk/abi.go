package sdk

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// MarketplaceABI is the agent-facing surface of the marketplace contract:
// directory and reputation reads plus the bounty lifecycle writes.
const MarketplaceABI = `[
  {"type":"function","name":"getAgent","stateMutability":"view",
   "inputs":[{"name":"wallet","type":"address"}],
   "outputs":[{"name":"","type":"tuple","components":[
     {"name":"id","type":"uint256"},
     {"name":"wallet","type":"address"},
     {"name":"metadataUri","type":"string"},
     {"name":"registeredAt","type":"uint256"},
     {"name":"stake","type":"uint256"},
     {"name":"verified","type":"bool"}]}]},
  {"type":"function","name":"getBounty","stateMutability":"view",
   "inputs":[{"name":"bountyId","type":"uint256"}],
   "outputs":[{"name":"","type":"tuple","components":[
     {"name":"id","type":"uint256"},
     {"name":"poster","type":"address"},
     {"name":"worker","type":"address"},
     {"name":"descriptionUri","type":"string"},
     {"name":"payout","type":"uint256"},
     {"name":"deadline","type":"uint256"},
     {"name":"skillCategory","type":"string"},
     {"name":"minReputation","type":"uint256"},
     {"name":"status","type":"uint8"},
     {"name":"createdAt","type":"uint256"},
     {"name":"claimedAt","type":"uint256"},
     {"name":"submittedAt","type":"uint256"},
     {"name":"workUri","type":"string"}]}]},
  {"type":"function","name":"getReputation","stateMutability":"view",
   "inputs":[{"name":"wallet","type":"address"}],
   "outputs":[{"name":"","type":"tuple","components":[
     {"name":"jobsCompletedAsWorker","type":"uint256"},
     {"name":"jobsPostedAsClient","type":"uint256"},
     {"name":"successfulAsWorker","type":"uint256"},
     {"name":"successfulAsClient","type":"uint256"},
     {"name":"totalEarnedUsdc","type":"uint256"},
     {"name":"totalPaidUsdc","type":"uint256"},
     {"name":"lastActivityAt","type":"uint256"}]}]},
  {"type":"function","name":"getReputationScore","stateMutability":"view",
   "inputs":[{"name":"wallet","type":"address"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"registerAgent","stateMutability":"nonpayable",
   "inputs":[{"name":"metadataUri","type":"string"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"updateAgent","stateMutability":"nonpayable",
   "inputs":[{"name":"metadataUri","type":"string"}],
   "outputs":[]},
  {"type":"function","name":"createBounty","stateMutability":"nonpayable",
   "inputs":[
     {"name":"descriptionUri","type":"string"},
     {"name":"payout","type":"uint256"},
     {"name":"deadline","type":"uint256"},
     {"name":"skillCategory","type":"string"},
     {"name":"minReputation","type":"uint256"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"claimBounty","stateMutability":"nonpayable",
   "inputs":[{"name":"bountyId","type":"uint256"}],
   "outputs":[]},
  {"type":"function","name":"submitWork","stateMutability":"nonpayable",
   "inputs":[{"name":"bountyId","type":"uint256"},{"name":"workUri","type":"string"}],
   "outputs":[]},
  {"type":"function","name":"approveWork","stateMutability":"nonpayable",
   "inputs":[{"name":"bountyId","type":"uint256"}],
   "outputs":[]},
  {"type":"function","name":"rejectWork","stateMutability":"nonpayable",
   "inputs":[{"name":"bountyId","type":"uint256"},{"name":"reason","type":"string"}],
   "outputs":[]},
  {"type":"function","name":"cancelBounty","stateMutability":"nonpayable",
   "inputs":[{"name":"bountyId","type":"uint256"}],
   "outputs":[]}
]`

var parsedABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(MarketplaceABI))
	if err != nil {
		panic("sdk: invalid marketplace ABI: " + err.Error())
	}
	parsedABI = parsed
}

// ABI returns the parsed SDK ABI
func ABI() abi.ABI {
	return parsedABI
}
