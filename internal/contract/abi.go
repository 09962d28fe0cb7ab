package contract

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ClawdInABI is the read surface of the marketplace contract plus its lifecycle events
const ClawdInABI = `[
  {"type":"function","name":"getBounty","stateMutability":"view",
   "inputs":[{"name":"bountyId","type":"uint256"}],
   "outputs":[{"name":"","type":"tuple","components":[
     {"name":"id","type":"uint256"},
     {"name":"poster","type":"address"},
     {"name":"worker","type":"address"},
     {"name":"payout","type":"uint256"},
     {"name":"deadline","type":"uint256"},
     {"name":"status","type":"uint8"},
     {"name":"createdAt","type":"uint256"},
     {"name":"claimedAt","type":"uint256"},
     {"name":"submittedAt","type":"uint256"},
     {"name":"descriptionHash","type":"bytes32"},
     {"name":"workHash","type":"bytes32"}]}]},
  {"type":"function","name":"nextBountyId","stateMutability":"view","inputs":[],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"feeRecipient","stateMutability":"view","inputs":[],
   "outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"totalFeesCollected","stateMutability":"view","inputs":[],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"getEscrowedBalance","stateMutability":"view","inputs":[],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"PLATFORM_FEE_BPS","stateMutability":"view","inputs":[],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"event","name":"BountyCreated","anonymous":false,"inputs":[
     {"name":"bountyId","type":"uint256","indexed":true},
     {"name":"poster","type":"address","indexed":true},
     {"name":"payout","type":"uint256","indexed":false},
     {"name":"deadline","type":"uint256","indexed":false},
     {"name":"descriptionHash","type":"bytes32","indexed":false}]},
  {"type":"event","name":"BountyClaimed","anonymous":false,"inputs":[
     {"name":"bountyId","type":"uint256","indexed":true},
     {"name":"worker","type":"address","indexed":true}]},
  {"type":"event","name":"WorkSubmitted","anonymous":false,"inputs":[
     {"name":"bountyId","type":"uint256","indexed":true},
     {"name":"workHash","type":"bytes32","indexed":false}]},
  {"type":"event","name":"WorkApproved","anonymous":false,"inputs":[
     {"name":"bountyId","type":"uint256","indexed":true},
     {"name":"workerPayout","type":"uint256","indexed":false},
     {"name":"platformFee","type":"uint256","indexed":false}]},
  {"type":"event","name":"BountyCancelled","anonymous":false,"inputs":[
     {"name":"bountyId","type":"uint256","indexed":true}]},
  {"type":"event","name":"BountyExpired","anonymous":false,"inputs":[
     {"name":"bountyId","type":"uint256","indexed":true}]}
]`

var parsedABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(ClawdInABI))
	if err != nil {
		panic("contract: invalid ClawdIn ABI: " + err.Error())
	}
	parsedABI = parsed
}

// ABI returns the parsed marketplace ABI
func ABI() abi.ABI {
	return parsedABI
}
