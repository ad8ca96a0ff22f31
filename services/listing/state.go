package listing

// State is a step of one ingestion attempt.
type State int

const (
	CollectingInput State = iota
	UploadingExterior
	UploadingInterior
	ExtractingFeatures
	PersistingBuilding
	PersistingDetails
	Done
	Failed
)

var stateNames = map[State]string{
	CollectingInput:    "CollectingInput",
	UploadingExterior:  "UploadingExterior",
	UploadingInterior:  "UploadingInterior",
	ExtractingFeatures: "ExtractingFeatures",
	PersistingBuilding: "PersistingBuilding",
	PersistingDetails:  "PersistingDetails",
	Done:               "Done",
	Failed:             "Failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "Unknown"
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == Done || s == Failed
}

// next is the only successor of each non-terminal state on the happy path.
var next = map[State]State{
	CollectingInput:    UploadingExterior,
	UploadingExterior:  UploadingInterior,
	UploadingInterior:  ExtractingFeatures,
	ExtractingFeatures: PersistingBuilding,
	PersistingBuilding: PersistingDetails,
	PersistingDetails:  Done,
}

// canTransition reports whether from may move to to.
func canTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == Failed {
		return true
	}
	return next[from] == to
}
