package domain

// LivenessState is the backend reachability verdict read before each request.
type LivenessState string

const (
	LivenessOnline  LivenessState = "online"
	LivenessOffline LivenessState = "offline"
)

func (s LivenessState) Online() bool {
	return s != LivenessOffline
}
