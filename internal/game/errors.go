package game

import "errors"

var (
	ErrOutOfTurn   = errors.New("out_of_turn")
	ErrWrongAction = errors.New("wrong_action")
	ErrNotStarted  = errors.New("not_started")
	ErrNotSeated   = errors.New("not_seated")
	ErrInvalidPawn = errors.New("invalid_pawn")
	ErrInvalidDice = errors.New("invalid_dice")
	ErrIllegalMove = errors.New("illegal_move")
	ErrGameOver    = errors.New("game_over")
	ErrAlreadyLeft = errors.New("already_left")
)
