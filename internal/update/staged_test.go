package update_test

import (
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/simblock-app/simblock/internal/update"
)

var _ = Describe("StagedPath", func() {
	It("names the staging slot beside the live binary", func() {
		Expect(update.StagedPath("/opt/simblock/SimBlock")).
			To(Equal("/opt/simblock/SimBlock.staged"))
	})
})

var _ = Describe("ApplyStaged", func() {
	It("does nothing when no staged binary exists", func() {
		live := writeLiveBinary([]byte("current"))

		applied, err := update.ApplyStaged(live)
		Expect(err).NotTo(HaveOccurred())
		Expect(applied).To(BeFalse())

		data, err := os.ReadFile(live)
		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(Equal([]byte("current")))
	})

	It("swaps a staged binary into the live path", func() {
		live := writeLiveBinary([]byte("current"))
		staged := update.StagedPath(live)
		Expect(os.WriteFile(staged, []byte("staged build"), 0o755)).To(Succeed())

		applied, err := update.ApplyStaged(live)
		Expect(err).NotTo(HaveOccurred())
		Expect(applied).To(BeTrue())

		data, err := os.ReadFile(live)
		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(Equal([]byte("staged build")))

		Expect(staged).NotTo(BeAnExistingFile())
	})
})
