package ethereum

// votingABI is the subset of the ballot contract interface the service calls.
const votingABI = `[
  {"type":"function","name":"registerVoter","stateMutability":"nonpayable",
   "inputs":[{"name":"_constituency","type":"string"},{"name":"_accountNumberHash","type":"bytes32"},{"name":"_signature","type":"bytes"}],
   "outputs":[]},
  {"type":"function","name":"castVote","stateMutability":"nonpayable",
   "inputs":[{"name":"_candidateName","type":"string"}],
   "outputs":[]},
  {"type":"function","name":"addCandidate","stateMutability":"nonpayable",
   "inputs":[{"name":"_name","type":"string"}],
   "outputs":[]},
  {"type":"function","name":"getCandidateList","stateMutability":"view",
   "inputs":[],
   "outputs":[{"name":"","type":"string[]"}]}
]`

const (
	methodRegisterVoter    = "registerVoter"
	methodCastVote         = "castVote"
	methodAddCandidate     = "addCandidate"
	methodGetCandidateList = "getCandidateList"
)
