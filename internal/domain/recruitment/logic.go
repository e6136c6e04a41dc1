package recruitment

func stageIndex(stage string) int {
	for i, s := range Pipeline {
		if s == stage {
			return i
		}
	}
	return -1
}

func ValidStage(stage string) bool {
	return stage == StageRejected || stageIndex(stage) >= 0
}

func Terminal(stage string) bool {
	return stage == StageHired || stage == StageRejected
}

// CheckMove allows any forward step along the pipeline, or rejection from a
// stage that is not yet terminal.
func CheckMove(from, to string) error {
	if !ValidStage(to) {
		return ErrInvalidStage
	}
	if Terminal(from) {
		return ErrTerminalStage
	}
	if to == StageRejected {
		return nil
	}
	if stageIndex(to) <= stageIndex(from) {
		return ErrBackwardMove
	}
	return nil
}
