package matrix

// Summary aggregates the run's bookkeeping for the final report. It is
// logged, never written into the data file.
type Summary struct {
	SamplesProcessed      int
	FilesSkipped          int
	RowsSeen              int
	QCDropped             int
	NonCodingDropped      int
	DuplicateIDCollisions int
	RenameCollisions      int
	Genes                 int
	ZeroFilledCells       int
}

// RowsRetained is the count of input rows that survived both filter stages.
func (s Summary) RowsRetained() int {
	return s.RowsSeen - s.QCDropped - s.NonCodingDropped
}
