package lock

func BalanceKey(userID string) string {
	return "balance:" + userID
}

func SeatKey(seatID string) string {
	return "seat:" + seatID
}

func TokenIssueKey(userID string) string {
	return "token:issue:" + userID
}

func ReservationKey(reservationID string) string {
	return "reservation:" + reservationID
}
